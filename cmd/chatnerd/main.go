// Package main implements the chatNERD CLI.
//
// chatNERD captures AI assistant chat transcripts and persists them under
// .cursor/chat/, merging continuations and edited prompts into the most
// recent record instead of littering the directory with duplicates.
package main

import (
	"fmt"
	"os"
	"time"

	"chatnerd/internal/config"
	"chatnerd/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	formatFlag string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatnerd",
	Short: "chatNERD - incremental chat transcript capture",
	Long: `chatNERD captures AI coding assistant chat transcripts, parses them into
structured messages, and incrementally persists them under .cursor/chat/.

New captures are reconciled against the most recent record:
  - a continued conversation appends only the new messages,
  - an edited-and-resent prompt replaces the record in full,
  - an unrelated conversation gets its own record.

No conversation IDs are needed; reconciliation uses message content only.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			workspace, _ = os.Getwd()
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "", "Record format: md or json (default from config)")

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig loads the workspace config and applies the --format flag on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	if formatFlag != "" {
		cfg.Format = formatFlag
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fmtAge renders an event age for the records listing.
func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "?"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
