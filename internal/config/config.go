package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/stores/cache"

	"alertlab/pkg/confkit"
	"alertlab/pkg/marketdata"
)

// CacheTTL holds config-driven TTL buckets, in seconds.
type CacheTTL struct {
	Short  int `json:",default=10"`
	Medium int `json:",default=60"`
	Long   int `json:",default=300"`
}

// PostgresConf mirrors goctl style database settings while allowing pool tuning.
type PostgresConf struct {
	DSN         string        `json:",optional"`
	MaxOpen     int           `json:",default=10"`
	MaxIdle     int           `json:",default=5"`
	MaxLifetime time.Duration `json:",default=5m"`
}

// ArtifactConf configures where C7 writes content-addressed run artifacts.
type ArtifactConf struct {
	Dir string `json:",default=./artifacts"`
}

// WorkerConf bounds the C9 worker pool and its shared API call budget.
type WorkerConf struct {
	Concurrency  int     `json:",default=4"`
	RateLimitRPS float64 `json:",default=5"`
	BurstSize    int     `json:",default=5"`
}

// Config is the top-level application configuration, loaded with
// github.com/zeromicro/go-zero/core/conf from a YAML file plus environment
// variable overrides (conf.UseEnv()).
type Config struct {
	// Env indicates the running environment: test | dev | prod.
	Env      string          `json:",default=test"`
	DataPath string          `json:",default=./data"`
	Postgres PostgresConf    `json:",optional"`
	Cache    cache.CacheConf `json:",optional"`
	TTL      CacheTTL        `json:",optional"`
	Artifact ArtifactConf    `json:",optional"`
	Worker   WorkerConf      `json:",optional"`

	MarketData confkit.Section[marketdata.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

const defaultConfigRelativePath = "etc/alertlab.yaml"

var configFileFlag = flag.String("f", defaultConfigRelativePath, "the config file")

func init() {
	confkit.LoadDotenvOnce()
}

// ConfigFile resolves the -f flag (or its default) against the working
// directory and executable directory, walking upward until it is found.
func ConfigFile() string {
	candidate := defaultConfigRelativePath
	if configFileFlag != nil {
		if trimmed := strings.TrimSpace(*configFileFlag); trimmed != "" {
			candidate = trimmed
		}
	}
	if resolved, ok := resolveConfigPath(candidate); ok {
		return resolved
	}
	return candidate
}

// OverrideConfigFile temporarily points ConfigFile at path, returning a
// restore func. Used by tests that need a fixture config.
func OverrideConfigFile(path string) (restore func()) {
	prev := ConfigFile()
	if configFileFlag != nil {
		*configFileFlag = path
	}
	return func() {
		if configFileFlag != nil {
			*configFileFlag = prev
		}
	}
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func resolveConfigPath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return path, true
		}
		return "", false
	}

	startDirs := make([]string, 0, 2)
	if cwd, err := os.Getwd(); err == nil {
		startDirs = append(startDirs, cwd)
	}
	if exePath, err := os.Executable(); err == nil {
		startDirs = append(startDirs, filepath.Dir(exePath))
	}

	seen := make(map[string]struct{}, len(startDirs))
	for _, dir := range startDirs {
		dir = filepath.Clean(dir)
		if dir == "" {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if resolved, ok := searchUpwards(dir, path); ok {
			return resolved, true
		}
	}
	return "", false
}

func searchUpwards(start, rel string) (string, bool) {
	dir := filepath.Clean(start)
	for {
		candidate := filepath.Join(dir, rel)
		if fileExists(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// MustLoad loads the resolved config file and panics on error.
func MustLoad() *Config {
	cfg, err := Load(ConfigFile())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return errors.New("config: dataPath is required")
	}
	return c.validateTTL()
}

func (c *Config) validateTTL() error {
	if c.TTL.Short <= 0 {
		return errors.New("config: ttl.short must be positive")
	}
	if c.TTL.Medium <= 0 {
		return errors.New("config: ttl.medium must be positive")
	}
	if c.TTL.Long <= 0 {
		return errors.New("config: ttl.long must be positive")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	base := c.baseDir
	if err := c.MarketData.Hydrate(base, marketdata.LoadConfig); err != nil {
		return fmt.Errorf("load market data config: %w", err)
	}
	return nil
}

func (c *Config) MainPath() string { return c.mainPath }
func (c *Config) BaseDir() string  { return c.baseDir }
