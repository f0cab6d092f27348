// Package marketdata is the external market-data client (C3): a
// rate-limited, retrying HTTP fetcher for OHLCV candles and token
// metadata, with API-key rotation across a pool of keys sharing one
// provider's quota.
package marketdata

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig describes one upstream market-data API.
type ProviderConfig struct {
	Name         string        `yaml:"name"`
	Type         string        `yaml:"type"`
	BaseURL      string        `yaml:"baseUrl"`
	APIKeys      []string      `yaml:"apiKeys"`
	RateLimitRPS float64       `yaml:"rateLimitRps"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Config is the top-level YAML document for marketdata providers.
type Config struct {
	Providers []ProviderConfig `yaml:"providers"`
	Default   string           `yaml:"default"`
}

// ProviderBuilder constructs a Client from a validated ProviderConfig.
type ProviderBuilder func(cfg ProviderConfig) (*Client, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderBuilder{}
)

// RegisterProvider makes a named provider builder available to
// Config.BuildProviders. Intended to be called from provider
// implementations' init() functions, as this package's own init does
// for the "http" type.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[typeName]
	return b, ok
}

// LoadConfig reads and validates a marketdata config file. API keys are
// typically supplied via ${ENV_VAR} placeholders rather than committed
// in plaintext, expanded here the same way confkit.ResolvePath expands
// environment variables in config-relative file paths.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read marketdata config %s: %w", path, err)
	}
	return LoadConfigFromReader([]byte(os.ExpandEnv(string(data))))
}

// LoadConfigFromReader parses config from raw YAML bytes.
func LoadConfigFromReader(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse marketdata config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() {
	for i := range c.Providers {
		if c.Providers[i].RateLimitRPS <= 0 {
			c.Providers[i].RateLimitRPS = defaultRateLimitRPS
		}
		if c.Providers[i].Timeout <= 0 {
			c.Providers[i].Timeout = defaultHTTPTimeout
		}
	}
}

// Validate checks structural invariants: unique provider names, a
// resolvable default, and at least one API key per provider.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("marketdata: at least one provider is required")
	}
	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return errors.New("marketdata: provider name is required")
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("marketdata: duplicate provider name %s", p.Name)
		}
		seen[p.Name] = struct{}{}
		if len(p.APIKeys) == 0 {
			return fmt.Errorf("marketdata: provider %s needs at least one api key", p.Name)
		}
		if p.BaseURL == "" {
			return fmt.Errorf("marketdata: provider %s needs a baseUrl", p.Name)
		}
	}
	if c.Default != "" {
		if _, ok := seen[c.Default]; !ok {
			return fmt.Errorf("marketdata: default provider %s is not configured", c.Default)
		}
	}
	return nil
}

// BuildProviders constructs a Client per configured provider, keyed by
// provider name.
func (c *Config) BuildProviders() (map[string]*Client, error) {
	out := make(map[string]*Client, len(c.Providers))
	for _, p := range c.Providers {
		builder, ok := lookupProviderBuilder(p.Type)
		if !ok {
			return nil, fmt.Errorf("marketdata: no builder registered for provider type %s", p.Type)
		}
		client, err := builder(p)
		if err != nil {
			return nil, fmt.Errorf("marketdata: build provider %s: %w", p.Name, err)
		}
		out[p.Name] = client
	}
	return out, nil
}

func init() {
	RegisterProvider("http", func(cfg ProviderConfig) (*Client, error) {
		return NewClient(cfg)
	})
}
