// Package config loads the application configuration from a YAML file with
// environment variable overrides, and validates it before use.
package config

import (
	"github.com/discograf/discograf/log"
)

// Config is the full application configuration
type Config struct {
	API     API     `mapstructure:"api"`
	Bridge  Bridge  `mapstructure:"bridge"`
	Session Session `mapstructure:"session"`
	Log     Log     `mapstructure:"log"`
	Server  Server  `mapstructure:"server"`
}

// API configures the REST client
type API struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Timeout int    `mapstructure:"timeout" validate:"gt=0"` // seconds
}

// Bridge configures the notification connection
type Bridge struct {
	URL string `mapstructure:"url" validate:"required"`
}

// Session configures session persistence
type Session struct {
	// Dir is where the session record lives. Empty resolves to the OS user
	// config directory.
	Dir string `mapstructure:"dir"`
}

// Log configures logging output
type Log struct {
	Level  string         `mapstructure:"level" validate:"oneof=debug info warn error"`
	ToFile bool           `mapstructure:"to_file"`
	File   log.FileConfig `mapstructure:"file"`
}

// Server configures the development API server
type Server struct {
	Addr   string `mapstructure:"addr"`
	DB     DB     `mapstructure:"db"`
	JWT    JWT    `mapstructure:"jwt"`
	Covers Covers `mapstructure:"covers"`
}

// DB selects and configures the server database
type DB struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// JWT configures server-side token issuing
type JWT struct {
	Secret     string `mapstructure:"secret" validate:"required"`
	AccessTTL  int64  `mapstructure:"access_ttl" validate:"gt=0"`  // seconds
	RefreshTTL int64  `mapstructure:"refresh_ttl" validate:"gt=0"` // seconds
}

// Covers selects and configures cover image storage
type Covers struct {
	Backend string `mapstructure:"backend" validate:"oneof=fs minio"`
	Dir     string `mapstructure:"dir"`
	Minio   Minio  `mapstructure:"minio"`
}

// Minio configures the MinIO cover storage backend
type Minio struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

// defaults are the documented local-development values
var defaults = map[string]any{
	"api.base_url":          "http://localhost:8080/api/v1",
	"api.timeout":           30,
	"bridge.url":            "ws://localhost:8080/ws",
	"session.dir":           "",
	"log.level":             "info",
	"log.to_file":           false,
	"server.addr":           ":8080",
	"server.db.driver":      "sqlite",
	"server.db.dsn":         "discograf.db",
	"server.jwt.secret":     "dev-secret-change-me",
	"server.jwt.access_ttl": 3600,
	"server.jwt.refresh_ttl": 604800,
	"server.covers.backend": "fs",
	"server.covers.dir":     "covers",
	"server.covers.minio.bucket": "album-covers",
}
