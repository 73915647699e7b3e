package log

import (
	"github.com/discograf/discograf/log/writer"
)

// FileConfig configures file output for a Logger
type FileConfig struct {
	Filepath   string `json:"filepath" mapstructure:"filepath"`
	Filename   string `json:"filename" mapstructure:"filename"`
	FileExt    string `json:"file_ext" mapstructure:"file_ext"`
	MaxSize    int    `json:"max_size" mapstructure:"max_size"`       // megabytes
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `json:"max_age" mapstructure:"max_age"`         // days
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// toWriterConfig converts to writer.RotateConfig, filling defaults for zero values
func (c *FileConfig) toWriterConfig() writer.RotateConfig {
	cfg := writer.RotateConfig{
		Filepath:   c.Filepath,
		Filename:   c.Filename,
		FileExt:    c.FileExt,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}

	if cfg.Filepath == "" {
		cfg.Filepath = "log"
	}
	if cfg.Filename == "" {
		cfg.Filename = "discograf"
	}
	if cfg.FileExt == "" {
		cfg.FileExt = "log"
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 30
	}

	return cfg
}
