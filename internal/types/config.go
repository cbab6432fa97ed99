package types

type RunMode string

const (
	// ModeLocal is the mode for running the API server with local defaults (auth optional)
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the API server
	ModeAPI RunMode = "api"
	// ModeMigrate is the mode for applying schema migrations and exiting
	ModeMigrate RunMode = "migrate"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
)
