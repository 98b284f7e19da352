package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmatch/internal/api"
	"github.com/amishk599/jobmatch/internal/docs"
	"github.com/amishk599/jobmatch/internal/scheduler"
	"github.com/amishk599/jobmatch/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the aggregation daemon",
	Long:  "Run the pipeline on the configured interval, optionally serving the HTTP API; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.Interval.String(),
		"greenhouse_boards", len(cfg.Sources.Greenhouse),
		"lever_boards", len(cfg.Sources.Lever),
		"retention", cfg.Retention.String(),
		"ai_enabled", cfg.AI.Enabled,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	p := setupPipeline(cfg, sqlStore, httpClient, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.API.Enabled {
		srv := api.NewServer(sqlStore, p, setupProvider(cfg),
			docs.NewGoogleDocProvider(httpClient), cfg.CoverTemplateDoc, logger)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.API.Listen); err != nil {
				logger.Error("api server error", "error", err)
			}
		}()
	}

	sched := scheduler.NewScheduler(p, cfg.Interval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
