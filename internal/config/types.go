package config

// Config is the root configuration structure for repocloner.
// Serialised to ~/.repocloner/config.json.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"    json:"server"`
	Database  DatabaseConfig            `mapstructure:"database"  json:"database"`
	AI        AIConfig                  `mapstructure:"ai"        json:"ai"`
	Providers map[string]ProviderConfig `mapstructure:"providers" json:"providers"`
	Workspace WorkspaceConfig           `mapstructure:"workspace" json:"workspace"`
	Notify    NotifyConfig              `mapstructure:"notify"    json:"notify"`
}

// ServerConfig controls the HTTP gateway.
type ServerConfig struct {
	// Port is the HTTP port the gateway listens on (default: 8080).
	Port int `mapstructure:"port" json:"port"`
	// BaseURL is the externally visible origin used to build OAuth redirect
	// URLs (e.g. "https://analyzer.example.com"). Defaults to
	// http://localhost:<port>.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// AdminToken guards the /api/admin endpoints. Empty disables them.
	AdminToken string `mapstructure:"admin_token" json:"admin_token"`
	// SessionTTLHours is the lifetime of a browser session (default: 24).
	SessionTTLHours int `mapstructure:"session_ttl_hours" json:"session_ttl_hours"`
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// AIConfig controls the external analysis provider.
type AIConfig struct {
	// Provider is "openai" (default) or "ollama". Empty yields a noop
	// provider; analysis jobs then fail fast with a configuration error.
	Provider string `mapstructure:"provider" json:"provider"`
	APIKey   string `mapstructure:"api_key"  json:"api_key"`
	Model    string `mapstructure:"model"    json:"model"`
	// BaseURL overrides the API endpoint. Deployment-style URLs (Azure
	// OpenAI, corporate proxies) are detected and get an api-version header.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// APIVersion is sent for deployment-style endpoints.
	APIVersion string `mapstructure:"api_version" json:"api_version"`
	// OllamaURL is used when Provider == "ollama".
	OllamaURL string `mapstructure:"ollama_url" json:"ollama_url"`
	// MaxRetries bounds transient-failure retries per analysis (default: 3).
	MaxRetries int `mapstructure:"max_retries" json:"max_retries"`
}

// ProviderConfig holds the enable flag and credentials for one git-hosting
// provider. A provider is usable for sign-in only when it is enabled AND its
// required secrets are present.
type ProviderConfig struct {
	Enabled      bool   `mapstructure:"enabled"       json:"enabled"`
	ClientID     string `mapstructure:"client_id"     json:"client_id"`
	ClientSecret string `mapstructure:"client_secret" json:"client_secret"`
	// Token is used by PAT-only providers (azure, sourcehut) and as the
	// direct-authentication credential check for the rest.
	Token string `mapstructure:"token" json:"token"`
	// Host overrides the default host for self-managed instances
	// (e.g. gitlab.mycompany.com).
	Host string `mapstructure:"host" json:"host"`
}

// NotifyConfig controls operator notifications for clone and analysis
// lifecycle events. All channels are optional.
type NotifyConfig struct {
	// MinSeverity filters completed-analysis events by their worst issue
	// severity ("critical", "high", "medium", "low"). Empty sends all.
	MinSeverity string `mapstructure:"min_severity" json:"min_severity"`
	// Events lists the event types to send. Empty means failures only.
	Events   []string              `mapstructure:"events"   json:"events"`
	Slack    SlackNotifyConfig     `mapstructure:"slack"    json:"slack"`
	Telegram TelegramNotifyConfig  `mapstructure:"telegram" json:"telegram"`
	Email    EmailNotifyConfig     `mapstructure:"email"    json:"email"`
	Webhook  WebhookNotifyConfig   `mapstructure:"webhook"  json:"webhook"`
}

// SlackNotifyConfig points at a Slack incoming webhook.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

// TelegramNotifyConfig holds Telegram Bot API credentials.
type TelegramNotifyConfig struct {
	BotToken string `mapstructure:"bot_token" json:"bot_token"`
	ChatID   string `mapstructure:"chat_id"   json:"chat_id"`
}

// EmailNotifyConfig holds SMTP delivery settings.
type EmailNotifyConfig struct {
	SMTPHost string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" json:"smtp_port"`
	Username string `mapstructure:"username"  json:"username"`
	Password string `mapstructure:"password"  json:"password"`
	From     string `mapstructure:"from"      json:"from"`
	To       string `mapstructure:"to"        json:"to"`
	UseTLS   bool   `mapstructure:"use_tls"   json:"use_tls"`
}

// WebhookNotifyConfig posts events to a generic endpoint, optionally signed.
type WebhookNotifyConfig struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"secret"`
}

// WorkspaceConfig controls where clones live on disk.
type WorkspaceConfig struct {
	// Dir is the parent directory for per-repository clone checkouts.
	Dir string `mapstructure:"dir" json:"dir"`
	// CatalogFile optionally points to a providers.yaml overlay that can
	// disable catalog entries or override their hosts.
	CatalogFile string `mapstructure:"catalog_file" json:"catalog_file"`
}
