package models

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Admin     AdminConfig     `json:"admin"`
	Purge     PurgeConfig     `json:"purge"`
	Push      PushConfig      `json:"push"`
	Assistant AssistantConfig `json:"assistant"`
	Retry     RetryConfig     `json:"retry"`
	Tracing   TracingConfig   `json:"tracing"`
	LogLevel  string          `json:"log_level"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port                  int `json:"port"`
	ReadTimeoutSec        int `json:"readTimeoutSec"`
	WriteTimeoutSec       int `json:"writeTimeoutSec"`
	IdleTimeoutSec        int `json:"idleTimeoutSec"`
	ConfigPollIntervalSec int `json:"configPollIntervalSec"`
}

// DatabaseConfig selects the messages table backend
type DatabaseConfig struct {
	Driver string `json:"driver"` // "sqlite3" or "postgres"
	Path   string `json:"path"`
	DSN    string `json:"dsn"`
}

// AdminConfig holds the shared secret for the scoped purge endpoint
type AdminConfig struct {
	Secret string `json:"secret"`
}

// PurgeConfig holds the fixed filter applied by the scoped purge
type PurgeConfig struct {
	Location            string   `json:"location"`
	UserIDs             []string `json:"userIds"`
	DefaultSinceMinutes int      `json:"defaultSinceMinutes"`
}

// PushConfig holds settings for the notification workers
type PushConfig struct {
	AppOrigin string `json:"appOrigin"`
	Icon      string `json:"icon"`
}

// AssistantConfig holds the optional AI assistant settings
type AssistantConfig struct {
	APIKey     string `json:"api_key"`
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	TimeoutSec int    `json:"timeoutSec"`
}

// RetryConfig holds retry related configurations
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig mirrors tracing.TracingConfig for JSON loading
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
