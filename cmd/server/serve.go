package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/api"
	job "github.com/maheshrc27/postpilot/internal/jobs"
	"github.com/maheshrc27/postpilot/internal/queue"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := wire(cmd.Context(), *cfg)
		if err != nil {
			return err
		}

		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client := asynq.NewClient(redisConn)
		defer client.Close()

		pipelineJob := job.NewPipelineJob(client, deps.services.Pipeline, service.ScheduleWindow, cfg.Schedule.StaleRunAfter)
		refreshJob := job.NewTokenRefreshJob(client, time.Hour)

		c, err := job.NewScheduler(cfg.Schedule, pipelineJob, refreshJob)
		if err != nil {
			closeDB(deps.db)
			return err
		}
		c.Start()

		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 2,
			Logger:      asynqLogger{},
		})
		mux := asynq.NewServeMux()
		queue.NewQueue(deps.services.Pipeline, deps.services.OAuth).Register(mux)

		slog.Info("starting the asynq server")
		if err := server.Start(mux); err != nil {
			c.Stop()
			closeDB(deps.db)
			return fmt.Errorf("start asynq server: %w", err)
		}

		app := api.NewApp(*cfg, deps.services)
		go func() {
			if err := app.Listen(":" + cfg.Port); err != nil {
				slog.Error("failed to start server", "error", err.Error())
				os.Exit(1)
			}
		}()
		slog.Info("server is running", "port", cfg.Port)

		gracefulShutdown(app, c, server, deps.db)
		return nil
	},
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, server *asynq.Server, db *sqlx.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	c.Stop()
	if err := app.Shutdown(); err != nil {
		slog.Error("failed to shut down server", "error", err.Error())
	}
	server.Shutdown()

	closeDB(db)
	slog.Info("server shutdown complete")
}

// asynqLogger routes asynq's logging through slog.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...any) { slog.Debug(sprint(args)) }
func (asynqLogger) Info(args ...any)  { slog.Info(sprint(args)) }
func (asynqLogger) Warn(args ...any)  { slog.Warn(sprint(args)) }
func (asynqLogger) Error(args ...any) { slog.Error(sprint(args)) }
func (asynqLogger) Fatal(args ...any) {
	slog.Error(sprint(args))
	os.Exit(1)
}

func sprint(args []any) string {
	return fmt.Sprint(args...)
}
