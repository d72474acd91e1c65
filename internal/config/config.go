package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Config groups every setting the service reads at startup.
type Config struct {
	App   App   `yaml:"app"`
	DB    DB    `yaml:"db"`
	Cache Cache `yaml:"cache"`
}

type App struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	DiagAddr    string `yaml:"diag_addr"`
	MaxBodySize int64  `yaml:"max_body_size"`
	LogLevel    string `yaml:"log_level"`

	// ListLimit bounds GET /articles.
	ListLimit int `yaml:"list_limit"`

	// CreateOnGet makes GET /article/{id} create a filler article before
	// reading, the way the first deployment of this service behaved.
	CreateOnGet bool `yaml:"create_on_get"`

	WorkerPoolSize  int           `yaml:"worker_pool_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (a App) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

type DB struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Name           string `yaml:"name"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`

	// DropOnShutdown removes the article table when the process exits.
	DropOnShutdown bool `yaml:"drop_on_shutdown"`
}

func (d DB) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Cache struct {
	Backend string `yaml:"backend"`

	// Nodes are the startup nodes; more than one implies a cluster.
	Nodes          []string      `yaml:"nodes"`
	Cluster        bool          `yaml:"cluster"`
	PoolSize       int           `yaml:"pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	OpTimeout      time.Duration `yaml:"op_timeout"`
	TTL            time.Duration `yaml:"ttl"`

	// SweepInterval is how often the memory backend drops expired entries.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// Probabilistic enables the sampling hook consulted before each cached read.
	Probabilistic bool `yaml:"probabilistic"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		App: App{
			Host:            "0.0.0.0",
			Port:            8080,
			DiagAddr:        ":9999",
			MaxBodySize:     1 << 20,
			LogLevel:        "info",
			ListLimit:       100,
			WorkerPoolSize:  10,
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DB{
			Host:           "localhost",
			Port:           5432,
			Name:           "articles",
			User:           "postgres",
			Password:       "postgres",
			SSLMode:        "disable",
			MaxConnections: 20,
		},
		Cache: Cache{
			Backend:        CacheBackendRedis,
			Nodes:          []string{"localhost:6379"},
			PoolSize:       100,
			ConnectTimeout: 500 * time.Millisecond,
			OpTimeout:      time.Second,
			TTL:            120 * time.Second,
			SweepInterval:  time.Minute,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port %d out of range", c.App.Port))
	}
	if c.App.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("app.max_body_size must be positive"))
	}
	if c.App.ListLimit <= 0 {
		errs = append(errs, fmt.Errorf("app.list_limit must be positive"))
	}
	if c.App.WorkerPoolSize <= 0 {
		errs = append(errs, fmt.Errorf("app.worker_pool_size must be positive"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
	}

	switch c.Cache.Backend {
	case CacheBackendRedis:
		if len(c.Cache.Nodes) == 0 {
			errs = append(errs, fmt.Errorf("cache.nodes must not be empty for redis backend"))
		}
	case CacheBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is unknown", c.Cache.Backend))
	}

	return errors.Join(errs...)
}
