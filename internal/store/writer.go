package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatnerd/internal/logging"
	"chatnerd/internal/parse"
	"chatnerd/internal/render"
	"chatnerd/internal/types"
)

// Create renders the export and writes it to a fresh record path inside dir.
// An existing file at the same path is never overwritten: the identifier is
// suffixed until a free name is found. Returns the written path.
func Create(dir string, id string, export types.ConversationExport, format Format) (string, error) {
	doc, err := renderDocument(export, format)
	if err != nil {
		return "", err
	}

	path := RecordPath(dir, id, format)
	for n := 2; ; n++ {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat record path: %w", err)
		}
		path = RecordPath(dir, fmt.Sprintf("%s-%d", id, n), format)
	}

	if err := writeAtomic(path, []byte(doc)); err != nil {
		return "", err
	}
	logging.Store("created record %s (%d messages)", filepath.Base(path), len(export.Messages))
	return path, nil
}

// Append adds only the new messages to the end of an existing record,
// preserving all prior bytes of the document.
//
// JSON records have no appendable tail, so for them the stored export is read
// back, extended, and rewritten in full — same observable result through the
// read path.
func Append(path string, newMsgs []types.Message) error {
	if len(newMsgs) == 0 {
		return nil
	}

	if strings.HasSuffix(path, ".json") {
		return appendJSON(path, newMsgs)
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	doc := string(existing)
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}
	doc += render.AppendBlocks(newMsgs)

	if err := writeAtomic(path, []byte(doc)); err != nil {
		return err
	}
	logging.Store("appended %d messages to %s", len(newMsgs), filepath.Base(path))
	return nil
}

func appendJSON(path string, newMsgs []types.Message) error {
	export, err := readJSONExport(path)
	if err != nil {
		return err
	}
	export.Messages = append(export.Messages, newMsgs...)
	export.Metadata.MessageCount = len(export.Messages)

	doc, err := render.JSON(export)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, []byte(doc)); err != nil {
		return err
	}
	logging.Store("appended %d messages to %s", len(newMsgs), filepath.Base(path))
	return nil
}

// Replace fully re-renders the record from the new export and overwrites the
// file. Title, metadata line, and every message block are regenerated.
func Replace(path string, export types.ConversationExport) error {
	format := FormatMarkdown
	if strings.HasSuffix(path, ".json") {
		format = FormatJSON
	}

	doc, err := renderDocument(export, format)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, []byte(doc)); err != nil {
		return err
	}
	logging.Store("replaced record %s (%d messages)", filepath.Base(path), len(export.Messages))
	return nil
}

// ReadMessages reads a record back and re-parses it into a message sequence.
// Missing files yield an empty sequence: the caller treats that as a first
// capture.
func ReadMessages(path string) ([]types.Message, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	if strings.HasSuffix(path, ".json") {
		var export types.ConversationExport
		if err := json.Unmarshal(data, &export); err != nil {
			logging.Get(logging.CategoryStore).Warn("record %s is not valid JSON: %v", filepath.Base(path), err)
			return nil, nil
		}
		return export.Messages, nil
	}

	return parse.Messages(string(data)), nil
}

func readJSONExport(path string) (types.ConversationExport, error) {
	var export types.ConversationExport
	data, err := os.ReadFile(path)
	if err != nil {
		return export, fmt.Errorf("failed to read record: %w", err)
	}
	if err := json.Unmarshal(data, &export); err != nil {
		return export, fmt.Errorf("record %s is not valid JSON: %w", filepath.Base(path), err)
	}
	return export, nil
}

func renderDocument(export types.ConversationExport, format Format) (string, error) {
	if format == FormatJSON {
		return render.JSON(export)
	}
	return render.Markdown(export), nil
}

// writeAtomic writes via a temp file in the same directory plus rename, so the
// record never holds a partially-written document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".chat-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace record: %w", err)
	}
	return nil
}
