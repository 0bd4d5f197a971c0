package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	serverpkg "github.com/onkernel/screencap"
	"github.com/onkernel/screencap/cmd/api/api"
	"github.com/onkernel/screencap/cmd/config"
	"github.com/onkernel/screencap/lib/capture"
	"github.com/onkernel/screencap/lib/idleinhibit"
	"github.com/onkernel/screencap/lib/logger"
	oapi "github.com/onkernel/screencap/lib/oapi"
	"github.com/onkernel/screencap/lib/recorder"
	"github.com/onkernel/screencap/lib/session"
	"github.com/onkernel/screencap/lib/statuslog"
	"github.com/onkernel/screencap/lib/storage"
)

// finalizing a recording can involve an upload
const shutdownTimeout = 2 * time.Minute

func main() {
	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load configuration from environment variables
	config, err := config.Load()
	if err != nil {
		slogger.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	slogger.Info("server configuration", "config", redact(*config))

	// context cancellation on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.AddToContext(ctx, slogger)

	// ensure ffmpeg is available
	mustFFmpeg(config.PathToFFmpeg)

	if _, err := serverpkg.LoadOpenAPI(ctx); err != nil {
		slogger.Error("invalid embedded api description", "err", err)
		os.Exit(1)
	}

	defaultParams := config.RecorderParams()
	if err := defaultParams.Validate(); err != nil {
		slogger.Error("invalid default recording parameters", "err", err)
		os.Exit(1)
	}

	var idle idleinhibit.Controller = idleinhibit.NewNoopController()
	if config.InhibitIdle {
		idle = idleinhibit.NewXsetController(fmt.Sprintf(":%d", config.DisplayNum))
	}

	var publisher storage.Publisher = storage.NoopPublisher{}
	if s3cfg := config.S3(); s3cfg != nil {
		p, err := storage.NewS3Publisher(ctx, *s3cfg)
		if err != nil {
			slogger.Error("failed to configure recording uploads", "err", err)
			os.Exit(1)
		}
		publisher = p
	}

	status := statuslog.New(slogger)
	ctrl := session.NewController(session.Deps{
		Devices: capture.NewFFmpegDevices(capture.Config{
			FFmpegPath:        config.PathToFFmpeg,
			DisplayNum:        config.DisplayNum,
			FrameRate:         config.FrameRate,
			MicDevice:         config.MicDevice,
			SystemAudioDevice: config.SystemAudioDevice,
			X11SocketDir:      config.X11SocketDir,
		}),
		Recorders: recorder.NewFFmpegRecorderFactory(config.PathToFFmpeg, defaultParams, idleinhibit.NewDebouncedController(idle)),
		Publisher: publisher,
		Status:    status,
		OutputDir: config.OutputDir,
	})

	apiService, err := api.New(ctrl, status)
	if err != nil {
		slogger.Error("failed to create api service", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.Logger,
		chiMiddleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxWithLogger := logger.AddToContext(r.Context(), slogger)
				next.ServeHTTP(w, r.WithContext(ctxWithLogger))
			})
		},
	)
	strictHandler := oapi.NewStrictHandler(apiService, nil)
	oapi.HandlerFromMux(strictHandler, r)

	// websocket status stream; not part of the OpenAPI document
	r.Get("/logs/ws", apiService.HandleLogsSocket)

	// endpoints to expose the OpenAPI document
	r.Get("/spec.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.oai.openapi")
		w.Write(serverpkg.OpenAPIYAML)
	})
	r.Get("/spec.json", func(w http.ResponseWriter, r *http.Request) {
		jsonData, err := yaml.YAMLToJSON(serverpkg.OpenAPIYAML)
		if err != nil {
			http.Error(w, "failed to convert YAML to JSON", http.StatusInternalServerError)
			logger.FromContext(r.Context()).Error("failed to convert YAML to JSON", "err", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonData)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: r,
	}

	go func() {
		slogger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slogger.Error("http server failed", "err", err)
			stop()
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	slogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(logger.AddToContext(context.Background(), slogger), shutdownTimeout)
	defer cancel()
	g, _ := errgroup.WithContext(shutdownCtx)

	g.Go(func() error {
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return apiService.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slogger.Error("server failed to shutdown", "err", err)
	}
}

func mustFFmpeg(path string) {
	cmd := exec.Command(path, "-version")
	if err := cmd.Run(); err != nil {
		panic(fmt.Errorf("ffmpeg not found or not executable: %w", err))
	}
}

func redact(c config.Config) config.Config {
	if c.S3SecretAccessKey != "" {
		c.S3SecretAccessKey = "REDACTED"
	}
	return c
}
