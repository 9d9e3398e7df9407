package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kairos-lab/project-kairos/internal/agenda"
	"github.com/kairos-lab/project-kairos/internal/backup"
	corecfg "github.com/kairos-lab/project-kairos/internal/core/config"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
	"github.com/kairos-lab/project-kairos/internal/core/storage/postgres"
	"github.com/kairos-lab/project-kairos/internal/export"
	"github.com/kairos-lab/project-kairos/internal/migrations"
	"github.com/kairos-lab/project-kairos/internal/notify"
	"github.com/kairos-lab/project-kairos/internal/progress"
	"github.com/kairos-lab/project-kairos/internal/scheduling"
	"github.com/kairos-lab/project-kairos/internal/server"
)

func main() {
	configPath := flag.String("config", "kairos.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"database_type", cfg.Database.Type,
		"policies", len(cfg.Policies),
		"instance_cap", cfg.Schedule.InstanceCap)

	// 2. Initialize Storage
	var store storage.EventStore
	var pinger server.Pinger

	switch cfg.Database.Type {
	case "memory":
		slog.Warn("Using in-memory storage; events are lost on restart")
		store = storage.NewMemoryStore()
	default:
		dbAdapter, err := postgres.NewAdapter(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
		)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer dbAdapter.Close()

		// 2.1. Run Database Migrations
		if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}

		store = dbAdapter
		pinger = dbAdapter
	}

	// 3. Initialize Change Bus
	bus := notify.NewBus()
	bus.Subscribe("audit-log", notify.SlogSubscriber{})

	// 4. Initialize Services
	schedulingSvc := scheduling.NewService(store, bus, cfg.Policies, cfg.Server.MaxBodySizeMB)
	agendaSvc := agenda.NewService(store,
		cfg.Schedule.InstanceCap,
		cfg.Schedule.MaxRangeDays,
		cfg.Schedule.UpcomingCount)
	backupSvc := backup.NewService(store, cfg.Server.MaxBodySizeMB)
	exportSvc := export.NewService(store)
	progressSvc := progress.NewService(store, cfg.Schedule.InstanceCap, cfg.Schedule.MaxRangeDays)

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), pinger, cfg.Server.Mode)
	schedulingSvc.RegisterRoutes(srv.Engine)
	agendaSvc.RegisterRoutes(srv.Engine)
	backupSvc.RegisterRoutes(srv.Engine)
	exportSvc.RegisterRoutes(srv.Engine)
	progressSvc.RegisterRoutes(srv.Engine)

	// 6. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
