// The server command runs the HTTP realization service: it renders corpus
// sentences on demand and processes uploaded MMS documents on a worker pool.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/config"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/dictionary"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/rig"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/server"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/status"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/worker"
)

func main() {
	config.InitLogger(true, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("configuration failed")
	}

	store, err := status.NewStore(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		logrus.WithError(err).Fatal("status store initialization failed")
	}

	dispatcher := worker.NewDispatcher(cfg.Workers, 100)
	dispatcher.Run()
	defer dispatcher.Stop()

	dict := dictionary.New(cfg.CorpusDir)
	handler := server.NewHandler(cfg.CorpusDir, dict, rig.DefaultSkeleton(), store, dispatcher)
	app := server.NewApp(handler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("shutting down")
		_ = app.Shutdown()
	}()

	logrus.WithField("addr", cfg.ServerAddr).Info("starting realization service")
	if err := app.Listen(cfg.ServerAddr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
