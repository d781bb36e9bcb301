// Command processor serves the export API and runs export and caption jobs.
//
// @title videothingy export processor API
// @version 1.0
// @description Queues video exports and caption generation for editor projects.
// @BasePath /api/v1
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videothingy/config"
	"videothingy/handlers"
	"videothingy/internal/db"
	"videothingy/internal/export"
	"videothingy/internal/ffmpeg"
	"videothingy/internal/jobs"
	"videothingy/internal/queue"
	"videothingy/internal/storage"
	"videothingy/internal/transcribe"
	"videothingy/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Processor stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Starting Video Processor...")

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	objects := storage.NewClient(cfg.StorageURL(), cfg.Bucket, cfg.APIKey, httpClient)

	orchestrator := export.New(store, objects, ffmpeg.NewProcessor(log), export.Options{
		TempDir:          cfg.TempDir,
		FontFile:         cfg.FontFile,
		FallbackFontFile: cfg.FallbackFontFile,
		ContentType:      storage.ContentType,
	}, log)

	var transcriber jobs.Transcriber
	if cfg.TranscribeKey != "" {
		transcriber = transcribe.NewClient(cfg.TranscribeURL, cfg.TranscribeKey, httpClient)
	} else {
		log.Warn("TRANSCRIBE_API_KEY not set, caption generation disabled")
	}

	registry := worker.NewRegistry()
	dispatcher := worker.NewDispatcher(cfg.WorkerCount, cfg.JobQueueSize, registry, log)
	dispatcher.Run()
	defer dispatcher.Stop()

	submitter := jobs.NewSubmitter(orchestrator, dispatcher, store, objects, transcriber, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AMQPURL != "" {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue, submitter, log)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.WithError(err).Error("Export request consumer stopped")
			}
		}()
	}

	app := newApp(handlers.NewApplicationHandler(store, submitter, registry, objects, log), log)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.WithError(err).Error("HTTP server shutdown failed")
		}
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("Processor listening")
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		return errors.Wrap(err, "HTTP server failed")
	}
	return nil
}

func openStore(cfg *config.Config, log logrus.FieldLogger) (db.ProjectStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		store, err := db.OpenSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		client, err := config.NewSupabaseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return db.NewPostgrestStore(client, cfg.Table), func() {}, nil
	}
}
