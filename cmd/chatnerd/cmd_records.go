// Package main implements record management CLI commands for chatNERD.
// This file handles record listing and capture history.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chatnerd/internal/capture"

	"github.com/spf13/cobra"
)

// =============================================================================
// RECORD MANAGEMENT COMMANDS
// =============================================================================

// recordsCmd manages persisted chat records
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage persisted chat records",
	Long: `List persisted chat records and their capture history.

Subcommands:
  list     - List all records under the records directory
  history  - Show the capture ledger (create/append/replace decisions)`,
	RunE: runRecordsList,
}

// recordsListCmd lists record files
var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persisted records",
	RunE:  runRecordsList,
}

// recordsHistoryCmd shows the capture ledger
var recordsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent capture decisions",
	RunE:  runRecordsHistory,
}

var historyLimit int

func runRecordsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := filepath.Join(workspace, filepath.FromSlash(cfg.RecordsDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No records yet.")
			return nil
		}
		return fmt.Errorf("failed to read records directory: %w", err)
	}

	type row struct {
		name string
		age  string
	}
	var rows []row
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "chat-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		rows = append(rows, row{name: entry.Name(), age: fmtAge(info.ModTime())})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	if len(rows) == 0 {
		fmt.Println("No records yet.")
		return nil
	}

	fmt.Printf("Records in %s\n", cfg.RecordsDir)
	fmt.Println(strings.Repeat("─", 50))
	for _, r := range rows {
		fmt.Printf("  %-36s %s\n", r.name, r.age)
	}
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("Total: %d record(s)\n", len(rows))

	return nil
}

func runRecordsHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipeline, err := capture.NewPipeline(workspace, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	idx := pipeline.Index()
	if idx == nil {
		return fmt.Errorf("capture index unavailable")
	}

	events, err := idx.History(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read capture history: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No captures recorded yet.")
		return nil
	}

	fmt.Println("Capture history (newest first)")
	fmt.Println(strings.Repeat("─", 70))
	for _, ev := range events {
		fmt.Printf("  %-8s %-40s %3d msgs (+%d)  %s\n",
			ev.Decision, ev.RecordPath, ev.MessageCount, ev.NewMessages, fmtAge(ev.CapturedAt))
	}
	fmt.Println(strings.Repeat("─", 70))

	return nil
}

func init() {
	recordsHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum events to show")
	recordsCmd.AddCommand(recordsListCmd, recordsHistoryCmd)
}
