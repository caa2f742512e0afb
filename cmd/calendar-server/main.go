package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"mktcal/internal/config"
	"mktcal/internal/httpapi"
	"mktcal/internal/store"
	"mktcal/internal/util"
	"mktcal/pkg/mktcal"
	"mktcal/pkg/mktcal/exchanges"
)

func main() {
	// Load config. Missing file falls back to defaults so the server can
	// run with just the built-in calendars.
	cfgPath := "config/mktcal.yaml"
	if p := os.Getenv("MKTCAL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Built-in exchange calendars register on import; custom YAML
	// descriptors stack on top.
	if cfg.Calendars.Dir != "" {
		if err := loadCustomCalendars(cfg.Calendars.Dir); err != nil {
			log.Fatalf("loading custom calendars: %v", err)
		}
	}
	logger.Info("calendars registered", "names", mktcal.GetCalendarNames())

	var cache store.ScheduleCache
	if cfg.Storage.SQLitePath != "" {
		sqlite, err := store.NewSQLiteCache(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening schedule cache: %v", err)
		}
		defer sqlite.Close()
		cache = sqlite
	}

	srv := httpapi.NewCalendarServer(cache, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("calendar server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down calendar server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// loadCustomCalendars registers every YAML descriptor in dir.
func loadCustomCalendars(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		desc, err := exchanges.LoadYAMLFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := mktcal.Register(desc); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
