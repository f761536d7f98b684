package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/logging"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "postpilot",
	Short:        "Automated Instagram content pipeline",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}
		logging.Setup(cfg.LogLevel)
		return nil
	},
}

var (
	brandID         int64
	dryRun          bool
	enforceSchedule bool
	accountID       int64
)

func init() {
	runPipelineCmd.Flags().Int64Var(&brandID, "brand-id", 0, "Only run this brand")
	runPipelineCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Store drafts without publishing")
	runPipelineCmd.Flags().BoolVar(&enforceSchedule, "enforce-schedule", false, "Skip brands outside their run window")

	refreshTokensCmd.Flags().Int64Var(&accountID, "account-id", 0, "Only refresh this social account")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runPipelineCmd)
	rootCmd.AddCommand(refreshTokensCmd)
}

var runPipelineCmd = &cobra.Command{
	Use:   "run-pipeline",
	Short: "Run the daily pipeline once and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := wire(ctx, *cfg)
		if err != nil {
			return err
		}
		defer closeDB(deps.db)

		req := transfer.RunPipelineRequest{DryRun: dryRun, EnforceSchedule: enforceSchedule}
		if brandID != 0 {
			req.BrandID = &brandID
		}

		res, err := deps.services.Pipeline.Run(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var refreshTokensCmd = &cobra.Command{
	Use:   "refresh-tokens",
	Short: "Refresh stored Instagram tokens once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := wire(ctx, *cfg)
		if err != nil {
			return err
		}
		defer closeDB(deps.db)

		var id *int64
		if accountID != 0 {
			id = &accountID
		}

		results, err := deps.services.OAuth.Refresh(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(transfer.TokenRefreshResponse{Success: true, Results: results})
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func closeDB(db interface{ Close() error }) {
	if err := db.Close(); err != nil {
		slog.Error("failed to close database", "error", err.Error())
		return
	}
	slog.Info("database connection closed")
}
