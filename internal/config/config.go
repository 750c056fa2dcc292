// Package config loads kcluster settings from a TOML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is read when no explicit path is given. It may be absent.
const DefaultFile = "kcluster.toml"

const (
	EnvData = "KCLUSTER_DATA"
	EnvAddr = "KCLUSTER_ADDR"
	EnvSeed = "KCLUSTER_SEED"
)

type Config struct {
	Data   Data   `toml:"data"`
	Server Server `toml:"server"`
	KMeans KMeans `toml:"kmeans"`
}

type Data struct {
	Path       string `toml:"path"`
	Separator  string `toml:"separator"`
	NameColumn string `toml:"name_column"`
}

type Server struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

type KMeans struct {
	// Seed fixes the centroid initialization. 0 seeds from the clock.
	Seed          int64 `toml:"seed"`
	MaxIterations int   `toml:"max_iterations"`
}

// Duration is a time.Duration written as a string such as "10s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Data: Data{
			Path:       "data/blogdata.csv",
			Separator:  ";",
			NameColumn: "Blog",
		},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{10 * time.Second},
		},
		KMeans: KMeans{
			MaxIterations: 1000,
		},
	}
}

// Load returns Default overlaid with the TOML file at path and then with the environment.
// A missing file is only an error when path is not DefaultFile.
// A .env file in the working directory is loaded into the environment first, if present.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultFile:
	default:
		return cfg, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvData); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.KMeans.Seed = seed
	}
	return nil
}

// Validate reports settings no component can work with.
func (c Config) Validate() error {
	if c.Data.Path == "" {
		return errors.New("data.path is required")
	}
	if utf8.RuneCountInString(c.Data.Separator) != 1 {
		return fmt.Errorf("data.separator must be a single character, got %q", c.Data.Separator)
	}
	if c.Data.NameColumn == "" {
		return errors.New("data.name_column is required")
	}
	if c.KMeans.MaxIterations < 0 {
		return fmt.Errorf("kmeans.max_iterations must not be negative, got %d", c.KMeans.MaxIterations)
	}
	return nil
}

// SeparatorRune returns the configured separator. Only valid after Validate.
func (d Data) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(d.Separator)
	return r
}
