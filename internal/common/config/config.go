// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Decisioning   DecisioningConfig       `mapstructure:"decisioning"`
	Underwriting  UnderwritingConfig      `mapstructure:"underwriting"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	CRM           CRMConfig               `mapstructure:"crm"`
	Scheduler     SchedulerConfig         `mapstructure:"scheduler"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// JaegerEndpoint enables span export when set (collector URL).
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// DecisioningConfig holds the rule/template catalog location and the default
// persona applied when a conversation has none stored.
type DecisioningConfig struct {
	CatalogPath    string        `mapstructure:"catalog_path"`
	DefaultPersona PersonaConfig `mapstructure:"default_persona"`
}

type PersonaConfig struct {
	Style        string `mapstructure:"style"`
	ReadingLevel string `mapstructure:"reading_level"`
	Emoji        string `mapstructure:"emoji"`
}

// UnderwritingConfig holds the deployment-wide offer defaults. Per-request
// overrides still win over everything here.
type UnderwritingConfig struct {
	MaxNSF3M            int          `mapstructure:"max_nsf_3m"`
	MaxNegativeDays3M   int          `mapstructure:"max_negative_days_3m"`
	PaybackToMonthlyRev float64      `mapstructure:"payback_to_monthly_rev_cap"`
	DefaultState        string       `mapstructure:"default_state"`
	Tiers               []TierConfig `mapstructure:"tiers"`
}

type TierConfig struct {
	Factor   float64 `mapstructure:"factor"`
	Fee      float64 `mapstructure:"fee"`
	TermDays int     `mapstructure:"term_days"`
	BuyRate  float64 `mapstructure:"buy_rate"`
}

// CRMConfig holds settings for the deal pipeline sync.
type CRMConfig struct {
	Pipedrive struct {
		BaseURL  string `mapstructure:"base_url"`
		APIToken string `mapstructure:"api_token"`
		Timeout  int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"pipedrive"`
}

// SchedulerConfig holds the follow-up dispatch schedule.
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DispatchSpec string `mapstructure:"dispatch_spec"` // cron expression
	Timezone     string `mapstructure:"timezone"`
}

// NotificationConfig holds settings for the send-merchant-message worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
