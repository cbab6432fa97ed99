package testutil

import (
	"context"
	"time"

	"github.com/chantier/avancement/internal/cache"
	"github.com/chantier/avancement/internal/config"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/sentry"
	"github.com/chantier/avancement/internal/types"
	"github.com/chantier/avancement/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository implementations used by service tests
type Stores struct {
	ProgressStateRepo *InMemoryProgressStateStore
	LineItemRepo      *InMemoryProgressLineStore
	ChangeOrderRepo   *InMemoryChangeOrderStore
	ScopeRepo         *InMemoryScopeStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     *MockPostgresClient
	cache  cache.Cache
	logger *logger.Logger
	sentry *sentry.Service
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.config.Logging.Level = types.LogLevelInfo
	s.logger = logger.NewNopLogger()
	s.sentry = sentry.NewSentryService(s.config, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		ProgressStateRepo: NewInMemoryProgressStateStore(),
		LineItemRepo:      NewInMemoryProgressLineStore(),
		ChangeOrderRepo:   NewInMemoryChangeOrderStore(),
		ScopeRepo:         NewInMemoryScopeStore(),
	}

	s.db = NewMockPostgresClient(s.logger,
		s.stores.ProgressStateRepo,
		s.stores.LineItemRepo,
		s.stores.ChangeOrderRepo,
	)
	s.cache = cache.NewInMemoryCache(s.config)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.ProgressStateRepo.Clear()
	s.stores.LineItemRepo.Clear()
	s.stores.ChangeOrderRepo.Clear()
	s.stores.ScopeRepo.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetSentry returns the sentry service, disabled by the test config
func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
