package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"tacticboard/internal/config"
	"tacticboard/internal/editor"
	"tacticboard/internal/export"
	"tacticboard/internal/field"
	"tacticboard/internal/handlers"
	tblog "tacticboard/internal/log"
	"tacticboard/internal/tactic"
)

const shutdownTimeout = 10 * time.Second

//go:embed static/*
var embeddedStatic embed.FS

func serve(ctx context.Context, cfg config.Config) error {
	log, err := tblog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	store := editor.NewStore(log, cfg.FrameInterval)
	defer store.Close()

	inbox := export.NewInbox(cfg.InboxTTL)
	engine, err := newEngine(cfg, inbox, log)
	if err != nil {
		return err
	}
	bridge, err := export.NewBridge(engine, inbox, export.Options{
		MaxConcurrent:   int64(cfg.MaxConcurrent),
		NavigateTimeout: cfg.NavigateTimeout,
		ReadyTimeout:    cfg.ReadyTimeout,
	}, log, nil)
	if err != nil {
		return err
	}

	db, err := tactic.Open(tactic.DBConfig{
		Driver:     cfg.DBDriver,
		DSN:        cfg.DBDSN,
		SQLitePath: cfg.SQLitePath,
	}, log)
	if err != nil {
		return err
	}
	tactics, err := tactic.NewRepository(db, log)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(tblog.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length"},
	}).Handler)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return err
	}
	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))

	exportHandler := handlers.NewExportHandler(bridge, log)
	exportHandler.SetRenderSettle(cfg.RenderSettle)
	handlers.NewHomeHandler(store).RegisterRoutes(r)
	handlers.NewBoardHandler(store, exportHandler, tactics, log).RegisterRoutes(r)
	exportHandler.RegisterRoutes(r)

	// No write timeout: board streams stay open and exports are bounded by
	// their own timeouts.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("export_engine", engine.Name()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// streams never finish on their own; closing the hubs ends them
	store.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := bridge.Shutdown(shutdownCtx); err != nil {
		log.Warn("export engine shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

func newEngine(cfg config.Config, inbox *export.Inbox, log *zap.Logger) (export.Engine, error) {
	switch cfg.ExportEngine {
	case config.EngineChrome:
		return export.NewChromeEngine(export.ChromeOptions{
			RemoteURL: cfg.ChromeURL,
			ExecPath:  cfg.ChromeExec,
			BaseURL:   cfg.BaseURL,
		}, log)
	default:
		return export.NewRasterEngine(inbox, field.DefaultViewport(), export.DefaultDeviceScale), nil
	}
}
