// Package config reads the sheetpack.toml project file.
//
//	inputs = ["sprites/"]
//	image  = "build/atlas.png"
//	map    = "build/atlas.xml"
//
//	[constraints]
//	max_width    = 2048
//	max_height   = 2048
//	padding      = 1
//	power_of_two = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
// Relative paths are resolved against the directory holding the file.
// Command-line flags override file values.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

// FileName is the project file looked up in the working directory.
const FileName = "sheetpack.toml"

// Environment variables that override file values.
const (
	EnvRedisAddr = "SHEETPACK_REDIS_ADDR"
	EnvMongoURI  = "SHEETPACK_MONGO_URI"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the parsed project file.
type Config struct {
	Inputs      []string            `toml:"inputs"`
	Image       string              `toml:"image"`
	Map         string              `toml:"map,omitempty"`
	Constraints packing.Constraints `toml:"constraints"`
	Cache       Cache               `toml:"cache"`
	Server      Server              `toml:"server"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend   string `toml:"backend,omitempty"`
	Dir       string `toml:"dir,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty"`
}

// Server configures "sheetpack serve".
type Server struct {
	Addr     string `toml:"addr,omitempty"`
	MongoURI string `toml:"mongo_uri,omitempty"`
	Database string `toml:"database,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Constraints: packing.Constraints{
			MaxWidth:  4096,
			MaxHeight: 4096,
			Padding:   1,
		},
		Cache:  Cache{Backend: CacheFile},
		Server: Server{Addr: ":8080"},
	}
}

// Load reads path on top of [Default]. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Find loads FileName from dir, returning [Default] when it does not exist.
func Find(dir string) (*Config, bool, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), false, nil
	}
	cfg, err := Load(path)
	return cfg, err == nil, err
}

// ApplyEnv overrides backend addresses from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		if c.Cache.Backend == "" || c.Cache.Backend == CacheFile {
			c.Cache.Backend = CacheRedis
		}
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Server.MongoURI = v
	}
}

// Validate checks constraint bounds and the cache backend.
func (c *Config) Validate() error {
	if err := c.Constraints.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Write encodes c as TOML.
func Write(w io.Writer, c *Config) error {
	return toml.NewEncoder(w).Encode(c)
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i, in := range c.Inputs {
		c.Inputs[i] = abs(in)
	}
	c.Image = abs(c.Image)
	c.Map = abs(c.Map)
	c.Cache.Dir = abs(c.Cache.Dir)
}
