package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every variable read by ApplyEnv.
const EnvPrefix = "ARTICLES_"

// ApplyEnv overrides fields that have a matching environment variable set.
func (c *Config) ApplyEnv() {
	c.App.Host = GetEnv(EnvPrefix+"APP_HOST", c.App.Host)
	c.App.Port = GetEnvInt(EnvPrefix+"APP_PORT", c.App.Port)
	c.App.DiagAddr = GetEnv(EnvPrefix+"DIAG_ADDR", c.App.DiagAddr)
	c.App.MaxBodySize = int64(GetEnvInt(EnvPrefix+"MAX_BODY_SIZE", int(c.App.MaxBodySize)))
	c.App.LogLevel = GetEnv(EnvPrefix+"LOG_LEVEL", c.App.LogLevel)
	c.App.ListLimit = GetEnvInt(EnvPrefix+"LIST_LIMIT", c.App.ListLimit)
	c.App.CreateOnGet = GetEnvBool(EnvPrefix+"CREATE_ON_GET", c.App.CreateOnGet)
	c.App.WorkerPoolSize = GetEnvInt(EnvPrefix+"WORKER_POOL_SIZE", c.App.WorkerPoolSize)

	c.DB.Host = GetEnv(EnvPrefix+"DB_HOST", c.DB.Host)
	c.DB.Port = GetEnvInt(EnvPrefix+"DB_PORT", c.DB.Port)
	c.DB.Name = GetEnv(EnvPrefix+"DB_NAME", c.DB.Name)
	c.DB.User = GetEnv(EnvPrefix+"DB_USER", c.DB.User)
	c.DB.Password = GetEnv(EnvPrefix+"DB_PASS", c.DB.Password)
	c.DB.MaxConnections = GetEnvInt(EnvPrefix+"DB_MAX_CONNECTIONS", c.DB.MaxConnections)
	c.DB.DropOnShutdown = GetEnvBool(EnvPrefix+"DB_DROP_ON_SHUTDOWN", c.DB.DropOnShutdown)

	c.Cache.Backend = GetEnv(EnvPrefix+"CACHE_BACKEND", c.Cache.Backend)
	if nodes := GetEnv(EnvPrefix+"REDIS_NODES", ""); nodes != "" {
		c.Cache.Nodes = strings.Split(nodes, ",")
	}
	c.Cache.Cluster = GetEnvBool(EnvPrefix+"REDIS_CLUSTER", c.Cache.Cluster)
	c.Cache.TTL = GetEnvDuration(EnvPrefix+"CACHE_TTL", c.Cache.TTL)
	c.Cache.SweepInterval = GetEnvDuration(EnvPrefix+"CACHE_SWEEP_INTERVAL", c.Cache.SweepInterval)
	c.Cache.Probabilistic = GetEnvBool(EnvPrefix+"USE_PROBABILISTIC_CACHE", c.Cache.Probabilistic)
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func GetEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}

	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}

	return fallback
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}

	return fallback
}
