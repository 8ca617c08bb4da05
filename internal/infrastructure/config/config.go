package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	TonAPI   TonAPIConfig   `mapstructure:"tonapi"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	NATS     NATSConfig     `mapstructure:"nats"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	HTTPPort  int    `mapstructure:"http_port"`
	StaticDir string `mapstructure:"static_dir"`
}

// TonAPIConfig represents TON indexing API client configuration
type TonAPIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PageLimit      int           `mapstructure:"page_limit"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// CampaignConfig represents the loyalty campaign parameters
type CampaignConfig struct {
	// Account is the monitored jetton wallet whose history is polled.
	Account string `mapstructure:"account"`
	// TargetSource is the jetton wallet contract that transfer
	// notifications must originate from to qualify.
	TargetSource    string `mapstructure:"target_source"`
	StartTimestamp  int64  `mapstructure:"start_timestamp"`
	PrimarySource   string `mapstructure:"primary_source"`
	SecondarySource string `mapstructure:"secondary_source"`
	QuestContract   string `mapstructure:"quest_contract"`
	TokenSymbol     string `mapstructure:"token_symbol"`
	// MinTransferTokens is the minimum whole-token transfer that earns
	// tickets; one ticket per MinTransferTokens transferred.
	MinTransferTokens int64 `mapstructure:"min_transfer_tokens"`
	// EventTicketDivisor converts raw jetton amounts in activity events
	// into tickets (floor division).
	EventTicketDivisor int64         `mapstructure:"event_ticket_divisor"`
	RefreshInterval    time.Duration `mapstructure:"refresh_interval"`
}

// NATSConfig represents NATS configuration for snapshot publication
type NATSConfig struct {
	URL               string        `mapstructure:"url"`
	SubjectPrefix     string        `mapstructure:"subject_prefix"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	Enabled           bool          `mapstructure:"enabled"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/jetton-ticket-tracker")

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.http_port", 8080)
	viper.SetDefault("app.static_dir", "./static")

	// TON API defaults
	viper.SetDefault("tonapi.base_url", "https://tonapi.io")
	viper.SetDefault("tonapi.request_timeout", "30s")
	viper.SetDefault("tonapi.page_limit", 100)
	viper.SetDefault("tonapi.retry_attempts", 5)
	viper.SetDefault("tonapi.retry_delay", "5s")

	// Campaign defaults
	viper.SetDefault("campaign.min_transfer_tokens", 10000)
	viper.SetDefault("campaign.event_ticket_divisor", 50_000_000_000_000)
	viper.SetDefault("campaign.refresh_interval", "300s")
	viper.SetDefault("campaign.token_symbol", "WOOF")

	// NATS defaults
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.subject_prefix", "tickets")
	viper.SetDefault("nats.connect_timeout", "10s")
	viper.SetDefault("nats.reconnect_attempts", 5)
	viper.SetDefault("nats.reconnect_delay", "2s")
	viper.SetDefault("nats.enabled", false)

	// Bind env for NATS URL
	viper.BindEnv("nats.url", "NATS_URL")
}

// Validate checks that all configuration values are usable
func (c *Config) Validate() error {
	if c.TonAPI.BaseURL == "" {
		return fmt.Errorf("tonapi.base_url is required")
	}
	if c.TonAPI.PageLimit < 1 {
		return fmt.Errorf("tonapi.page_limit must be at least 1")
	}
	if c.TonAPI.RetryAttempts < 1 {
		return fmt.Errorf("tonapi.retry_attempts must be at least 1")
	}
	if c.Campaign.Account == "" {
		return fmt.Errorf("campaign.account is required")
	}
	if c.Campaign.TargetSource == "" {
		return fmt.Errorf("campaign.target_source is required")
	}
	if c.Campaign.StartTimestamp <= 0 {
		return fmt.Errorf("campaign.start_timestamp is required")
	}
	if c.Campaign.MinTransferTokens < 1 {
		return fmt.Errorf("campaign.min_transfer_tokens must be at least 1")
	}
	if c.Campaign.EventTicketDivisor < 1 {
		return fmt.Errorf("campaign.event_ticket_divisor must be at least 1")
	}
	if c.Campaign.RefreshInterval < time.Second {
		return fmt.Errorf("campaign.refresh_interval must be at least 1s")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats is enabled")
	}
	return nil
}
