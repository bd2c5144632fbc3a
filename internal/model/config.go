package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// SMTPConfig holds the send endpoint settings. Authentication is per-request
// using the sending identity's credential; TLS is required.
type SMTPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// HELODomain is the domain announced in the HELO/EHLO greeting and
	// used for generated message ids.
	HELODomain string `mapstructure:"helo_domain" yaml:"helo_domain"`
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IMAPConfig holds the endpoint used by the one-time folder provisioning
// side operation.
type IMAPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns the host:port dial address.
func (c IMAPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CampaignConfig holds the campaign sizing and policy knobs.
type CampaignConfig struct {
	// TargetBytes is the overall estimated corpus size to reach.
	TargetBytes int64 `mapstructure:"target_bytes" yaml:"target_bytes"`

	// AvgMessageBytes is the assumed average wire size of one message,
	// used to derive the total send count from TargetBytes.
	AvgMessageBytes int64 `mapstructure:"avg_message_bytes" yaml:"avg_message_bytes"`

	// ChunkSize is the number of requests generated and dispatched per
	// batch. State is persisted after every batch, so this is also the
	// resumption granularity.
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`

	// Concurrency caps in-flight sends within a batch.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// ProvisionConcurrency caps the folder seeding pool. Kept smaller
	// than Concurrency to avoid overloading the endpoint.
	ProvisionConcurrency int `mapstructure:"provision_concurrency" yaml:"provision_concurrency"`

	// SendTimeout bounds one outbound send, connection included.
	SendTimeout time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`

	// RatePerSec, when positive, caps sends per second across workers.
	RatePerSec float64 `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`

	// InlineImageChance is the probability [0,1] that a new message
	// carries an inline image reference.
	InlineImageChance float64 `mapstructure:"inline_image_chance" yaml:"inline_image_chance"`
}

// EstimatorConfig holds the size-estimation heuristics. The defaults were
// tuned empirically; they approximate, never guarantee, backend accounting.
type EstimatorConfig struct {
	// MIMEOverhead inflates attachment bytes for transfer encoding.
	MIMEOverhead float64 `mapstructure:"mime_overhead" yaml:"mime_overhead"`

	// EnvelopeBytes is the fixed per-message header/envelope constant.
	EnvelopeBytes int64 `mapstructure:"envelope_bytes" yaml:"envelope_bytes"`

	// DuplicationFactor accounts for mailbox-side copies (sender's Sent
	// Items plus the recipient's Inbox).
	DuplicationFactor float64 `mapstructure:"duplication_factor" yaml:"duplication_factor"`
}

// PathsConfig holds the file-system inputs and the state database location.
type PathsConfig struct {
	// Identities is the CSV identity feed.
	Identities string `mapstructure:"identities" yaml:"identities"`

	// Attachments is the content pool root, with small/, medium/ and
	// large/ tier subdirectories.
	Attachments string `mapstructure:"attachments" yaml:"attachments"`

	// Database is the SQLite state and thread graph database.
	Database string `mapstructure:"database" yaml:"database"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	SMTP      SMTPConfig      `mapstructure:"smtp" yaml:"smtp"`
	IMAP      IMAPConfig      `mapstructure:"imap" yaml:"imap"`
	Campaign  CampaignConfig  `mapstructure:"campaign" yaml:"campaign"`
	Estimator EstimatorConfig `mapstructure:"estimator" yaml:"estimator"`
	Paths     PathsConfig     `mapstructure:"paths" yaml:"paths"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailseed/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailseed", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		SMTP: SMTPConfig{Port: 465, HELODomain: "mailseed.local"},
		IMAP: IMAPConfig{Port: 993},
		Campaign: CampaignConfig{
			AvgMessageBytes:      150 * 1024,
			ChunkSize:            50,
			Concurrency:          8,
			ProvisionConcurrency: 3,
			SendTimeout:          30 * time.Second,
			InlineImageChance:    0.3,
		},
		Estimator: EstimatorConfig{
			MIMEOverhead:      1.33,
			EnvelopeBytes:     2048,
			DuplicationFactor: 2.0,
		},
		Paths: PathsConfig{Database: filepath.Join(".", "mailseed.db")},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.helo_domain", "mailseed.local")
	v.SetDefault("imap.port", 993)
	v.SetDefault("campaign.avg_message_bytes", 150*1024)
	v.SetDefault("campaign.chunk_size", 50)
	v.SetDefault("campaign.concurrency", 8)
	v.SetDefault("campaign.provision_concurrency", 3)
	v.SetDefault("campaign.send_timeout", "30s")
	v.SetDefault("campaign.inline_image_chance", 0.3)
	v.SetDefault("estimator.mime_overhead", 1.33)
	v.SetDefault("estimator.envelope_bytes", 2048)
	v.SetDefault("estimator.duplication_factor", 2.0)
	v.SetDefault("paths.database", "mailseed.db")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("smtp", cfg.SMTP)
	v.Set("imap", cfg.IMAP)
	v.Set("campaign", cfg.Campaign)
	v.Set("estimator", cfg.Estimator)
	v.Set("paths", cfg.Paths)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
