/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/suparena/entityrecord/logging"
)

// DefaultPrefix is the environment variable prefix used by the command line.
const DefaultPrefix = "ENTITYRECORD_"

// Backend names.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

// Config selects a store backend and the ambient settings around it.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	Log      LogConfig      `mapstructure:"log"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Dynamo   DynamoConfig   `mapstructure:"dynamo"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SchemaConfig struct {
	// File is a YAML schema document loaded into the registry at startup.
	File string `mapstructure:"file"`
}

type DynamoConfig struct {
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"accesskey"`
	SecretKey string `mapstructure:"secretkey"`
	Table     string `mapstructure:"table"`
	Endpoint  string `mapstructure:"endpoint"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type DispatchConfig struct {
	// PoolSize bounds concurrent operations; zero runs each on its own goroutine.
	PoolSize int `mapstructure:"poolsize"`
}

// Load reads configuration in increasing precedence: built-in defaults, the
// optional YAML file, then environment variables carrying prefix. A .env file
// in the working directory is loaded into the environment first when present.
//
// Environment keys map onto nested settings by replacing underscores with
// dots, so ENTITYRECORD_DYNAMO_TABLE sets dynamo.table.
func Load(prefix, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("backend", BackendMemory)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("sqlite.path", "entityrecord.db")
	v.SetDefault("dynamo.region", "us-east-1")
	v.SetDefault("dispatch.poolsize", 0)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		key, value, ok := strings.Cut(envStr, "=")
		if !ok || !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		propKey := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, prefixUpper), "_", "."))
		propKey = strings.TrimPrefix(propKey, ".")
		if propKey != "" {
			v.Set(propKey, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendDynamoDB:
		if c.Dynamo.Table == "" {
			return fmt.Errorf("dynamo.table is required for the %s backend", c.Backend)
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Dispatch.PoolSize < 0 {
		return fmt.Errorf("dispatch.poolsize must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Logger builds the configured slog-backed logger writing to stderr.
func (c *Config) Logger() logging.Logger {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = logging.LogLevelInfo
	}
	return logging.NewSlogLogger(level, c.Log.Format, os.Stderr)
}
