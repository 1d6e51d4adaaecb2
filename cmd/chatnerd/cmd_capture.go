// Package main capture command: feed a transcript (file or stdin) through the
// reconciliation pipeline.
package main

import (
	"fmt"
	"io"
	"os"

	"chatnerd/internal/capture"
	"chatnerd/internal/reconcile"
	"chatnerd/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// captureCmd processes one transcript capture
var captureCmd = &cobra.Command{
	Use:   "capture [file]",
	Short: "Capture a chat transcript (from a file, or stdin when omitted)",
	Long: `Parses a transcript and reconciles it against the most recent record.

Supported input shapes:
  - labeled-block Markdown (**User** / **Cursor** blocks separated by ---)
  - "User:" / "Cursor:" prefixed lines
  - a JSON array of {role, content} objects

Examples:
  chatnerd capture transcript.md
  pbpaste | chatnerd capture`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCapture,
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipeline, err := capture.NewPipeline(workspace, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	var result capture.Result
	if len(args) == 1 {
		logger.Debug("capturing from file", zap.String("path", args[0]))
		result, err = pipeline.CaptureFile(args[0])
	} else {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return fmt.Errorf("failed to read stdin: %w", readErr)
		}
		result, err = pipeline.Capture(string(data))
	}
	if err != nil {
		return err
	}

	switch result.Action {
	case reconcile.ActionSkip:
		fmt.Println("Nothing to persist (empty capture or unchanged conversation).")
	case reconcile.ActionCreate:
		fmt.Printf("Created %s (%d messages)\n", store.Display(workspace, result.Path), result.MessageCount)
	case reconcile.ActionAppend:
		fmt.Printf("Appended %d new message(s) to %s\n", result.NewMessages, store.Display(workspace, result.Path))
	case reconcile.ActionReplace:
		fmt.Printf("Replaced %s after an edited prompt (%d messages)\n", store.Display(workspace, result.Path), result.MessageCount)
	}

	return nil
}
