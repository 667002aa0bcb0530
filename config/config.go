// Package config loads the YAML configuration of the richedit host.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/richedit/editor"
	"github.com/hazyhaar/richedit/history"
	"github.com/hazyhaar/richedit/sink"
)

// Config is the top-level configuration.
type Config struct {
	Editor EditorConfig  `yaml:"editor"`
	Server ServerConfig  `yaml:"server"`
	Store  StoreConfig   `yaml:"store"`
	Sinks  []SinkConfig  `yaml:"sinks"`
	Assets []AssetConfig `yaml:"assets"`
}

// EditorConfig holds the per-document editor settings.
type EditorConfig struct {
	Debounce       time.Duration `yaml:"debounce"`
	HistoryDelay   time.Duration `yaml:"history_delay"`
	MaxHistory     int           `yaml:"max_history"`
	Placeholder    string        `yaml:"placeholder"`
	BannerDuration time.Duration `yaml:"banner_duration"`
}

// ServerConfig controls the playground HTTP server.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	UploadDir    string        `yaml:"upload_dir"`
	MaxUpload    int64         `yaml:"max_upload"`
	MaxBody      int64         `yaml:"max_body"`
	PublicPrefix string        `yaml:"public_prefix"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

// StoreConfig locates the document database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SinkConfig defines where change batches go besides the session itself.
type SinkConfig struct {
	Type    string `yaml:"type"` // stdout | webhook
	URL     string `yaml:"url"`  // for webhook
	Retries int    `yaml:"retries"`
	Queue   int    `yaml:"queue"` // buffer size, 0 delivers inline
}

// AssetConfig is one preconfigured library asset.
type AssetConfig struct {
	ID   string `yaml:"id"`
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Editor.Debounce <= 0 {
		c.Editor.Debounce = editor.DefaultDebounce
	}
	if c.Editor.HistoryDelay <= 0 {
		c.Editor.HistoryDelay = history.DefaultDelay
	}
	if c.Editor.MaxHistory <= 0 {
		c.Editor.MaxHistory = history.DefaultMaxHistory
	}
	if c.Editor.BannerDuration <= 0 {
		c.Editor.BannerDuration = editor.DefaultBannerDuration
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "data/media"
	}
	if c.Server.MaxUpload <= 0 {
		c.Server.MaxUpload = 10 << 20
	}
	if c.Server.MaxBody <= 0 {
		c.Server.MaxBody = 1 << 20
	}
	if c.Server.PublicPrefix == "" {
		c.Server.PublicPrefix = "/media"
	}
	if c.Server.SessionTTL <= 0 {
		c.Server.SessionTTL = 30 * time.Minute
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/richedit.db"
	}
	for i := range c.Sinks {
		if c.Sinks[i].Retries <= 0 {
			c.Sinks[i].Retries = 3
		}
	}
	for i := range c.Assets {
		if c.Assets[i].Kind == "" {
			c.Assets[i].Kind = "image"
		}
	}
}

func (c *Config) validate() error {
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: webhook needs url", i)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	for i, a := range c.Assets {
		if a.ID == "" || a.URL == "" {
			return fmt.Errorf("config: assets[%d]: id and url are required", i)
		}
	}
	return nil
}

// Apply copies the editor settings and asset library into o.
func (c *Config) Apply(o *editor.Options) {
	o.Debounce = c.Editor.Debounce
	o.HistoryDelay = c.Editor.HistoryDelay
	o.MaxHistory = c.Editor.MaxHistory
	o.BannerDuration = c.Editor.BannerDuration
	if o.Placeholder == "" {
		o.Placeholder = c.Editor.Placeholder
	}
	o.Assets = c.EditorAssets()
}

// EditorAssets converts the asset library.
func (c *Config) EditorAssets() []editor.Asset {
	out := make([]editor.Asset, 0, len(c.Assets))
	for _, a := range c.Assets {
		out = append(out, editor.Asset{ID: a.ID, URL: a.URL, Name: a.Name, Kind: a.Kind})
	}
	return out
}

// BuildSinks instantiates the configured sinks. stdout writes to w.
func (c *Config) BuildSinks(w io.Writer, logger *slog.Logger) []sink.Sink {
	var out []sink.Sink
	for _, s := range c.Sinks {
		var sk sink.Sink
		switch s.Type {
		case "stdout":
			sk = sink.NewStdout(w)
		case "webhook":
			sk = sink.NewWebhook(s.URL,
				sink.WithWebhookRetries(s.Retries),
				sink.WithWebhookLogger(logger))
		}
		if s.Queue > 0 {
			sk = sink.NewQueue(sk, s.Queue, logger)
		}
		out = append(out, sk)
	}
	return out
}
