package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ManagementConfig describes how to reach the VPN management interface.
type ManagementConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Timeout string `yaml:"timeout"`
}

// Addr returns the management interface address in "host:port" form.
func (c ManagementConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig holds the connection settings for the redis store backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig selects and configures the snapshot store backend.
type StorageConfig struct {
	Type         string      `yaml:"type"` // file | sqlite | redis
	DataDir      string      `yaml:"data_dir"`
	SQLitePath   string      `yaml:"sqlite_path"`
	Redis        RedisConfig `yaml:"redis"`
	MonthsToKeep int         `yaml:"months_to_keep"`
}

// ReportConfig configures aggregation granularity and report rendering.
type ReportConfig struct {
	OutputPath         string `yaml:"output_path"`
	TotalBandwidthMbit int    `yaml:"total_bandwidth_mbit"`
	BucketMinutes      int    `yaml:"bucket_minutes"` // 10 | 30 | 60
	SampleSeconds      int    `yaml:"sample_seconds"`
}

// ClickHouseConfig holds the settings for the optional archive writer.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds the settings for the optional snapshot publisher.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// SMTPConfig holds the settings for the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// WebhookConfig holds the settings for the webhook notifier.
type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// AlerterRule defines a single threshold rule evaluated after every pass.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// AlerterConfig enables threshold alerting on aggregated stats.
type AlerterConfig struct {
	Enabled bool          `yaml:"enabled"`
	Rules   []AlerterRule `yaml:"rules"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// PollerConfig configures the long-running poll loop of vs-server.
type PollerConfig struct {
	Interval string `yaml:"interval"`
}

// APIConfig configures the HTTP server of vs-server.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Management ManagementConfig `yaml:"management"`
	Storage    StorageConfig    `yaml:"storage"`
	Report     ReportConfig     `yaml:"report"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
	Alerter    AlerterConfig    `yaml:"alerter"`
	Poller     PollerConfig     `yaml:"poller"`
	API        APIConfig        `yaml:"api"`
}

// envOverrides carries the secrets that may be supplied through the
// environment instead of the config file.
type envOverrides struct {
	RedisPassword      string `envconfig:"VPNSPECTRA_REDIS_PASSWORD"`
	ClickHousePassword string `envconfig:"VPNSPECTRA_CLICKHOUSE_PASSWORD"`
	SMTPPassword       string `envconfig:"VPNSPECTRA_SMTP_PASSWORD"`
}

// LoadConfig reads the configuration from a YAML file, applies environment
// overrides and validates the result.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}
	if env.RedisPassword != "" {
		cfg.Storage.Redis.Password = env.RedisPassword
	}
	if env.ClickHousePassword != "" {
		cfg.ClickHouse.Password = env.ClickHousePassword
	}
	if env.SMTPPassword != "" {
		cfg.Alerter.SMTP.Password = env.SMTPPassword
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Management.Host == "" {
		c.Management.Host = "127.0.0.1"
	}
	if c.Management.Port == 0 {
		c.Management.Port = 7505
	}
	if c.Management.Timeout == "" {
		c.Management.Timeout = "20s"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "file"
	}
	if c.Storage.MonthsToKeep == 0 {
		c.Storage.MonthsToKeep = 1
	}
	if c.Report.OutputPath == "" {
		c.Report.OutputPath = "reports/index.html"
	}
	if c.Report.BucketMinutes == 0 {
		c.Report.BucketMinutes = 60
	}
	if c.Report.SampleSeconds == 0 {
		c.Report.SampleSeconds = 300
	}
	if c.Report.TotalBandwidthMbit == 0 {
		c.Report.TotalBandwidthMbit = 150
	}
	if c.Poller.Interval == "" {
		c.Poller.Interval = "5m"
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
}

func (c *Config) validate() error {
	switch c.Report.BucketMinutes {
	case 10, 30, 60:
	default:
		return fmt.Errorf("report.bucket_minutes must be one of 10, 30, 60, got %d", c.Report.BucketMinutes)
	}
	if c.Storage.MonthsToKeep < 0 {
		return fmt.Errorf("storage.months_to_keep must not be negative")
	}
	if _, err := time.ParseDuration(c.Management.Timeout); err != nil {
		return fmt.Errorf("invalid management.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Poller.Interval); err != nil {
		return fmt.Errorf("invalid poller.interval: %w", err)
	}
	return nil
}
