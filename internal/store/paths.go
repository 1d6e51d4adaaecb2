// Package store persists chat records under the workspace and finds the most
// recent one to reconcile against. Records are plain files — Markdown or JSON
// — named chat-<id>.<ext> inside .cursor/chat/. The package also keeps a small
// SQLite ledger of capture events for the records CLI.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RecordsDirName is the record directory relative to the workspace root.
const RecordsDirName = ".cursor/chat"

// Format selects the rendered form of a persisted record.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want md or json)", raw)
}

// RecordsDir returns the record directory for a workspace, creating it (and
// intermediate segments) on demand.
func RecordsDir(workspace string) (string, error) {
	dir := filepath.Join(workspace, filepath.FromSlash(RecordsDirName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create records directory: %w", err)
	}
	return dir, nil
}

// RecordPath builds the path for a record identifier inside dir.
func RecordPath(dir, id string, format Format) string {
	return filepath.Join(dir, fmt.Sprintf("chat-%s.%s", id, format))
}

// IsRecordFile reports whether a file name matches the record naming
// convention.
func IsRecordFile(name string) bool {
	if !strings.HasPrefix(name, "chat-") {
		return false
	}
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".json")
}

// Display returns abs relative to the workspace root when it falls under that
// root, else the original absolute path.
func Display(workspace, abs string) string {
	if workspace == "" {
		return abs
	}
	rel, err := filepath.Rel(workspace, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return rel
}
