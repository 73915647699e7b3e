package config

import (
	"path"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/log"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Loader reads the configuration file and watches it for changes
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a loader for the named config file searched in the given
// paths. Environment variables prefixed DISCOGRAF_ override file values, with
// dots replaced by underscores (api.base_url -> DISCOGRAF_API_BASE_URL).
func NewLoader(name string, paths []string) *Loader {
	v := viper.New()

	extension := path.Ext(name)
	v.SetConfigName(strings.TrimSuffix(name, extension))
	v.SetConfigType(strings.TrimPrefix(extension, "."))

	for _, configPath := range paths {
		v.AddConfigPath(configPath)
	}

	v.SetEnvPrefix("discograf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Loader{viper: v}
}

// Load reads and validates the configuration. A missing config file is not an
// error; defaults and environment variables still apply.
func (l *Loader) Load() (*Config, error) {
	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, 500, "read config")
		}
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, 500, "config parse error")
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, 400, "config validation failed")
	}

	return &cfg, nil
}

// Watch invokes the callback with the freshly loaded configuration whenever
// the config file changes on disk. Reload failures keep the previous config.
func (l *Loader) Watch(callback func(*Config)) {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config change detected")

		cfg, err := l.Load()
		if err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		if callback != nil {
			callback(cfg)
		}
	})

	l.viper.WatchConfig()
}
