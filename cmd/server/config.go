package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DbName   string `json:"db_name"`
}

func (p PostgresConfig) DbUrl() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		p.Host, p.Port, p.User, p.Password, p.DbName,
	)
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SolveConfig bounds what a single HTTP request may ask of the engine.
// Timeouts are in seconds.
type SolveConfig struct {
	DefaultMaxDepth int     `json:"default_max_depth"`
	MaxMaxDepth     int     `json:"max_max_depth"`
	DefaultTimeout  float64 `json:"default_timeout"`
	MaxTimeout      float64 `json:"max_timeout"`
}

type Config struct {
	Mode     string         `json:"mode"`
	Addr     string         `json:"addr"`
	Postgres PostgresConfig `json:"postgres"`
	Log      LogConfig      `json:"log"`
	Solve    SolveConfig    `json:"solve"`
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":                    c.Mode,
		"addr":                    c.Addr,
		"pg_host":                 c.Postgres.Host,
		"pg_port":                 c.Postgres.Port,
		"pg_user":                 c.Postgres.User,
		"pg_db_name":              c.Postgres.DbName,
		"log_file":                c.Log.File,
		"solve_default_max_depth": c.Solve.DefaultMaxDepth,
		"solve_max_max_depth":     c.Solve.MaxMaxDepth,
		"solve_default_timeout":   c.Solve.DefaultTimeout,
		"solve_max_timeout":       c.Solve.MaxTimeout,
	}
}

func (c Config) Production() bool {
	return c.Mode == "production"
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

func ReadConfig(path string, config *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, config); err != nil {
		return err
	}
	config.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Solve.DefaultMaxDepth <= 0 {
		c.Solve.DefaultMaxDepth = 10
	}
	if c.Solve.MaxMaxDepth <= 0 {
		c.Solve.MaxMaxDepth = 20
	}
	if c.Solve.DefaultTimeout <= 0 {
		c.Solve.DefaultTimeout = 30
	}
	if c.Solve.MaxTimeout <= 0 {
		c.Solve.MaxTimeout = 120
	}
}
