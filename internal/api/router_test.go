package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chantier/avancement/internal/api/dto"
	v1 "github.com/chantier/avancement/internal/api/v1"
	"github.com/chantier/avancement/internal/auth"
	"github.com/chantier/avancement/internal/cache"
	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/rest/middleware"
	"github.com/chantier/avancement/internal/sentry"
	"github.com/chantier/avancement/internal/service"
	"github.com/chantier/avancement/internal/testutil"
	"github.com/chantier/avancement/internal/types"
	"github.com/chantier/avancement/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}

type RouterSuite struct {
	suite.Suite
	cfg      *config.Configuration
	router   *gin.Engine
	scopes   *testutil.InMemoryScopeStore
	contract string
	line     string
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	validator.NewValidator()
}

func (s *RouterSuite) SetupTest() {
	s.cfg = config.GetDefaultConfig()
	s.setupRouter(fakePinger{})
}

func (s *RouterSuite) setupRouter(pinger fakePinger) {
	log := logger.NewNopLogger()
	states := testutil.NewInMemoryProgressStateStore()
	lines := testutil.NewInMemoryProgressLineStore()
	changeOrders := testutil.NewInMemoryChangeOrderStore()
	s.scopes = testutil.NewInMemoryScopeStore()

	sentryService := sentry.NewSentryService(s.cfg, log)
	params := service.ServiceParams{
		Logger:            log,
		Config:            s.cfg,
		DB:                testutil.NewMockPostgresClient(log, states, lines, changeOrders),
		Cache:             cache.NewCache(s.cfg),
		Sentry:            sentryService,
		ProgressStateRepo: states,
		LineItemRepo:      lines,
		ChangeOrderRepo:   changeOrders,
		ScopeRepo:         s.scopes,
	}

	s.router = NewRouter(Handlers{
		Health:        v1.NewHealthHandler(pinger, log),
		ProgressState: v1.NewProgressStateHandler(service.NewProgressService(params), service.NewProgressReportService(params), log),
	}, s.cfg, log, sentryService)

	ctx := testutil.SetupContext()
	sc := testutil.NewTestScope(ctx, types.ScopeTypeContract, false)
	s.Require().NoError(s.scopes.AddScope(ctx, sc))
	line := testutil.NewTestLine(ctx, sc.ID, "masonry", "100", "10", 1)
	s.Require().NoError(s.scopes.AddLine(ctx, line))
	s.contract = sc.ID
	s.line = line.ID
}

func (s *RouterSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](s *RouterSuite, w *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *RouterSuite) createState() map[string]any {
	w := s.do(http.MethodPost, "/v1/progress-states", map[string]any{
		"scope_id":      s.contract,
		"snapshot_date": time.Now().UTC().Format(time.RFC3339),
	}, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](s, w)
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))

	s.setupRouter(fakePinger{err: context.DeadlineExceeded})
	w = s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RouterSuite) TestProgressBillingOverHTTP() {
	state := s.createState()
	stateID := state["id"].(string)
	s.Equal(float64(1), state["sequence_number"])
	s.Equal(types.DefaultUserID, state["author_id"])

	items := state["line_items"].([]any)
	s.Require().Len(items, 1)
	lineID := items[0].(map[string]any)["id"].(string)

	w := s.do(http.MethodPut, "/v1/progress-states/"+stateID+"/lines/"+lineID, map[string]any{
		"quantity_current": "4",
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	line := decode[map[string]any](s, w)
	s.Equal("400", line["amount_total"])

	w = s.do(http.MethodPost, "/v1/progress-states/"+stateID+"/finalize", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	finalized := decode[dto.FinalizeProgressStateResponse](s, w)
	s.Equal(2, finalized.Next.SequenceNumber)
	s.Equal("400", finalized.Next.GrandTotal.AmountPrevious.String())

	w = s.do(http.MethodPut, "/v1/progress-states/"+stateID+"/lines/"+lineID, map[string]any{
		"quantity_current": "5",
	}, nil)
	s.Equal(http.StatusLocked, w.Code)
	errResp := decode[middleware.ErrorResponse](s, w)
	s.False(errResp.Success)
	s.Equal(ierr.ErrCodeLocked, errResp.Error.Code)
	s.Equal(stateID, errResp.Error.Details["state_id"])

	w = s.do(http.MethodPost, "/v1/progress-states/"+stateID+"/finalize", nil, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/v1/progress-states/"+stateID+"/next", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(finalized.Next.ID, decode[map[string]any](s, w)["id"])

	w = s.do(http.MethodGet, "/v1/progress-states/"+finalized.Next.ID+"/next", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/v1/progress-states/"+stateID+"/reopen", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/v1/scopes/"+s.contract+"/progress-states", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	list := decode[dto.ListProgressStatesResponse](s, w)
	s.Len(list.Items, 1)

	w = s.do(http.MethodGet, "/v1/scopes/"+s.contract+"/progress-summary", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	summary := decode[dto.ScopeSummaryResponse](s, w)
	s.Equal("1000", summary.ContractTotal.String())
	s.Equal("400", summary.BilledTotal.String())
}

func (s *RouterSuite) TestChangeOrderRoutes() {
	stateID := s.createState()["id"].(string)

	w := s.do(http.MethodPost, "/v1/progress-states/"+stateID+"/change-orders", map[string]any{
		"description":      "extra wall",
		"unit":             "m2",
		"unit_price":       "30",
		"quantity_current": "2",
	}, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	itemID := decode[map[string]any](s, w)["id"].(string)

	w = s.do(http.MethodPut, "/v1/progress-states/"+stateID+"/change-orders/"+itemID, map[string]any{
		"quantity_current": "3",
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("90", decode[map[string]any](s, w)["amount_total"])

	w = s.do(http.MethodDelete, "/v1/progress-states/"+stateID+"/change-orders/"+itemID, nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/v1/progress-states/"+stateID, nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/progress-states/"+stateID, nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestRequestErrors() {
	s.Run("malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/progress-states", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(ierr.ErrCodeValidation, decode[middleware.ErrorResponse](s, w).Error.Code)
	})

	s.Run("negative quantity", func() {
		stateID := s.createState()["id"].(string)
		w := s.do(http.MethodPost, "/v1/progress-states/"+stateID+"/lines", map[string]any{
			"scope_line_id":    s.line,
			"quantity_current": "-1",
		}, nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown scope", func() {
		w := s.do(http.MethodPost, "/v1/progress-states", map[string]any{
			"scope_id":      "scope_missing",
			"snapshot_date": time.Now().UTC().Format(time.RFC3339),
		}, nil)
		s.Equal(http.StatusNotFound, w.Code)
		s.Equal(ierr.ErrCodeNotFound, decode[middleware.ErrorResponse](s, w).Error.Code)

		w = s.do(http.MethodGet, "/v1/scopes/scope_missing/progress-states", nil, nil)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *RouterSuite) TestMissingNumericFields() {
	state := s.createState()
	stateID := state["id"].(string)
	lineID := state["line_items"].([]any)[0].(map[string]any)["id"].(string)
	linePath := "/v1/progress-states/" + stateID + "/lines/" + lineID

	w := s.do(http.MethodPut, linePath, map[string]any{"quantity_current": "4"}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.Run("line update without quantity keeps the entered quantity", func() {
		w := s.do(http.MethodPut, linePath, map[string]any{}, nil)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(ierr.ErrCodeValidation, decode[middleware.ErrorResponse](s, w).Error.Code)

		w = s.do(http.MethodGet, "/v1/progress-states/"+stateID, nil, nil)
		s.Require().Equal(http.StatusOK, w.Code)
		resp := decode[dto.ProgressStateResponse](s, w)
		s.Require().Len(resp.LineItems, 1)
		s.Equal("4", resp.LineItems[0].QuantityCurrent.String())
		s.Equal("400", resp.LineItems[0].AmountTotal.String())
	})

	s.Run("change order without unit price", func() {
		w := s.do(http.MethodPost, "/v1/progress-states/"+stateID+"/change-orders", map[string]any{
			"description":      "extra wall",
			"unit":             "m2",
			"quantity_current": "2",
		}, nil)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(ierr.ErrCodeValidation, decode[middleware.ErrorResponse](s, w).Error.Code)
	})

	s.Run("quantity with more decimals than stored", func() {
		w := s.do(http.MethodPut, linePath, map[string]any{"quantity_current": "1.1234567"}, nil)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(ierr.ErrCodeValidation, decode[middleware.ErrorResponse](s, w).Error.Code)
	})
}

func (s *RouterSuite) TestAuthentication() {
	rawKey := auth.GenerateAPIKey()
	s.cfg.Auth.Enabled = true
	s.cfg.Auth.Secret = "test-secret"
	s.cfg.Auth.APIKey.Keys = map[string]config.APIKeyDetails{
		auth.HashAPIKey(rawKey): {
			TenantID: types.DefaultTenantID,
			UserID:   "user_api",
			Name:     "site tablet",
			IsActive: true,
		},
	}
	s.setupRouter(fakePinger{})

	path := "/v1/scopes/" + s.contract + "/progress-summary"

	w := s.do(http.MethodGet, path, nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, path, nil, map[string]string{"x-api-key": "wrong"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, path, nil, map[string]string{"x-api-key": rawKey})
	s.Equal(http.StatusOK, w.Code)

	token, err := auth.GenerateToken(s.cfg, "user_jwt", types.DefaultTenantID, time.Hour)
	s.Require().NoError(err)

	w = s.do(http.MethodPost, "/v1/progress-states", map[string]any{
		"scope_id":      s.contract,
		"snapshot_date": time.Now().UTC().Format(time.RFC3339),
	}, map[string]string{types.HeaderAuthorization: "Bearer " + token})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("user_jwt", decode[map[string]any](s, w)["author_id"])

	w = s.do(http.MethodGet, path, nil, map[string]string{types.HeaderAuthorization: "Bearer not-a-token"})
	s.Equal(http.StatusUnauthorized, w.Code)

	// the health check stays public
	w = s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
}
