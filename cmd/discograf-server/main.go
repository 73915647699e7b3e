// Command discograf-server runs the development API server: REST endpoints,
// JWT authentication and the websocket notification channel, backed by a local
// database.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/discograf/discograf/app"
	"github.com/discograf/discograf/config"
	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/server"
	transporthttp "github.com/discograf/discograf/transport/http"
)

func main() {
	configDir := flag.String("config", "", "directory holding discograf.yaml")
	flag.Parse()

	if err := run(*configDir); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(configDir string) error {
	paths := []string{"."}
	if configDir != "" {
		paths = []string{configDir}
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(userDir, "discograf"))
	}

	loader := config.NewLoader("discograf.yaml", paths)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	if err := setupLogging(cfg.Log); err != nil {
		return err
	}

	store, err := server.OpenStore(cfg.Server.DB)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.Server, store, log.G)
	if err != nil {
		return err
	}

	loader.Watch(func(next *config.Config) {
		if level, err := zerolog.ParseLevel(next.Log.Level); err == nil {
			log.SetGlobalLevel(level)
		}
	})

	httpServer := transporthttp.NewServer(cfg.Server.Addr, srv.Router(),
		transporthttp.WithName("api"),
		transporthttp.WithMetrics("/metrics"),
	)

	application := app.New(
		app.WithServer(httpServer),
		app.WithClose("hub", func(context.Context) error {
			srv.Hub().Close()
			return nil
		}),
		app.WithClose("store", store.Close),
	)

	return application.Run()
}

func setupLogging(cfg config.Log) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if !cfg.ToFile {
		log.SetGlobalLevel(level)
		return nil
	}

	logger, err := log.NewMulti(cfg.File, log.WithLevel(level))
	if err != nil {
		return err
	}
	log.SetGlobalLogger(logger)
	return nil
}
