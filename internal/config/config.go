package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xxxsen/common/logger"

	"github.com/tabula-io/tabula/internal/model"
)

type Config struct {
	Port       int              `json:"port"`
	Database   DatabaseConfig   `json:"database"`
	LogConfig  logger.LogConfig `json:"log_config"`
	AuthSecret string           `json:"auth_secret"`
	CORSAllow  []string         `json:"cors_allow"`
	Cache      CacheConfig      `json:"cache"`
	Purge      PurgeConfig      `json:"purge"`
	// WriteIntervalMS throttles mutation routes per client. Off by
	// default: rapid cell edits are normal traffic, not abuse.
	WriteIntervalMS int           `json:"write_interval_ms"`
	Tables          []model.Table `json:"tables"`
}

func (c *Config) WriteWindow() time.Duration {
	return time.Duration(c.WriteIntervalMS) * time.Millisecond
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// CacheConfig sizes the client-side dataset cache. Zero values disable it.
type CacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// PurgeConfig drives the soft-deleted entity cleanup job. Saved views
// are never expired.
type PurgeConfig struct {
	Spec          string `json:"spec"`
	RetentionDays int    `json:"retention_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if password := os.Getenv("TABULA_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if secret := os.Getenv("TABULA_AUTH_SECRET"); secret != "" {
		cfg.AuthSecret = secret
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Cache.Size < 0 {
		return nil, fmt.Errorf("cache.size must not be negative")
	}
	if cfg.WriteIntervalMS < 0 {
		return nil, fmt.Errorf("write_interval_ms must not be negative")
	}
	if cfg.Purge.Spec == "" {
		cfg.Purge.Spec = "30 3 * * *"
	}
	if cfg.Purge.RetentionDays <= 0 {
		cfg.Purge.RetentionDays = 30
	}
	if len(cfg.Tables) == 0 {
		return nil, fmt.Errorf("at least one table definition is required")
	}
	seen := make(map[string]struct{}, len(cfg.Tables))
	for i, table := range cfg.Tables {
		if table.Name == "" {
			return nil, fmt.Errorf("tables[%d].name is required", i)
		}
		if _, dup := seen[table.Name]; dup {
			return nil, fmt.Errorf("duplicate table definition: %s", table.Name)
		}
		seen[table.Name] = struct{}{}
		if len(table.Columns) == 0 {
			return nil, fmt.Errorf("table %s has no columns", table.Name)
		}
		fields := make(map[string]struct{}, len(table.Columns))
		for _, col := range table.Columns {
			if col.Field == "" {
				return nil, fmt.Errorf("table %s has a column without a field name", table.Name)
			}
			if _, dup := fields[col.Field]; dup {
				return nil, fmt.Errorf("table %s defines column %s twice", table.Name, col.Field)
			}
			fields[col.Field] = struct{}{}
		}
	}
	return &cfg, nil
}

// Table resolves a logical table definition by name.
func (c *Config) Table(name string) (model.Table, bool) {
	for _, table := range c.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return model.Table{}, false
}
