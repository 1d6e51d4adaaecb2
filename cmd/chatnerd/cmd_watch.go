// Package main watch command: run the inbox watcher until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"chatnerd/internal/capture"
	"chatnerd/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd runs the inbox watcher
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox directory and capture dropped transcripts",
	Long: `Watches the inbox directory (default .chatnerd/inbox/) for transcript
files. A dropped .txt/.md/.json file is captured once its writes settle, then
removed on success.

Runs until interrupted (Ctrl-C).`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipeline, err := capture.NewPipeline(workspace, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	inbox := filepath.Join(workspace, filepath.FromSlash(cfg.Watch.InboxDir))
	watcher, err := watch.NewInboxWatcher(inbox, pipeline, cfg.DebounceDuration(), cfg.Watch.RemoveAfterCapture)
	if err != nil {
		return fmt.Errorf("failed to create inbox watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", cfg.Watch.InboxDir)
	logger.Info("inbox watcher running", zap.String("inbox", inbox))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	watcher.Stop()

	stats := watcher.GetStats()
	fmt.Printf("Stopped. %d captured, %d skipped, %d error(s).\n",
		stats.Captures, stats.Skips, stats.Errors)

	return nil
}
