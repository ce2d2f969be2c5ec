package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"

	bderrors "github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/server"
)

// Cache backends.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// Config is the optional TOML configuration file. Command-line flags take
// precedence over values read here.
type Config struct {
	Workers     int           `toml:"workers"`
	SpinLimit   int           `toml:"spin_limit"`
	MaxNodes    int           `toml:"max_nodes"`
	Cache       string        `toml:"cache"`
	RedisAddr   string        `toml:"redis_addr"`
	RedisURL    string        `toml:"redis_url"`
	CacheTTL    time.Duration `toml:"cache_ttl"`
	MetricsFile string        `toml:"metrics_file"`

	Server ServerConfig `toml:"server"`
}

// ServerConfig holds the [server] table.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

func defaultConfig() Config {
	return Config{
		Cache:  cacheFile,
		Server: ServerConfig{Addr: server.DefaultAddr},
	}
}

// loadConfig reads path over the defaults. A missing file is an error only
// when the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaultConfig(), nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, bderrors.New(bderrors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache {
	case cacheFile, cacheRedis, cacheNone:
	default:
		return bderrors.New(bderrors.ErrCodeInvalidInput, "cache must be one of file, redis, none (got %q)", c.Cache)
	}
	if c.Cache == cacheRedis {
		if c.RedisURL != "" {
			if err := bderrors.ValidateURL(c.RedisURL); err != nil {
				return err
			}
		} else if c.RedisAddr == "" {
			return bderrors.New(bderrors.ErrCodeInvalidInput, "redis cache needs redis_addr or redis_url")
		}
	}
	if c.CacheTTL < 0 {
		return bderrors.New(bderrors.ErrCodeInvalidInput, "cache_ttl must not be negative")
	}
	if c.MaxNodes < 0 {
		return bderrors.New(bderrors.ErrCodeInvalidInput, "max_nodes must not be negative")
	}
	if c.SpinLimit < 0 {
		return bderrors.New(bderrors.ErrCodeInvalidInput, "spin_limit must not be negative")
	}
	return bderrors.ValidateWorkers(c.Workers)
}
