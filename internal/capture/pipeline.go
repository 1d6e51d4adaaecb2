// Package capture wires the capture pipeline: parse the raw transcript,
// locate the most recent record, let the reconciler classify the pair, and
// apply the resulting create/append/replace through the store.
//
// One capture is processed end to end before the next starts. The pipeline
// serializes itself with a mutex so the locate-then-write sequence is never
// interleaved — the single "current record" invariant depends on it.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chatnerd/internal/config"
	"chatnerd/internal/idgen"
	"chatnerd/internal/logging"
	"chatnerd/internal/parse"
	"chatnerd/internal/reconcile"
	"chatnerd/internal/store"
	"chatnerd/internal/types"

	"github.com/google/uuid"
)

// Result reports what one capture event did.
type Result struct {
	Action       reconcile.Action
	Path         string // record file touched ("" on skip)
	MessageCount int    // messages in the incoming capture
	NewMessages  int    // messages actually added (append only)
}

// Pipeline processes capture events for one workspace.
type Pipeline struct {
	mu        sync.Mutex
	workspace string
	cfg       *config.Config
	format    store.Format
	index     *store.Index
	now       func() time.Time
}

// NewPipeline builds a pipeline for a workspace. The capture index is
// best-effort: if it cannot be opened the pipeline still captures, it just
// stops keeping history.
func NewPipeline(workspace string, cfg *config.Config) (*Pipeline, error) {
	if workspace == "" {
		return nil, fmt.Errorf("workspace path required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	format, err := store.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		workspace: workspace,
		cfg:       cfg,
		format:    format,
		now:       time.Now,
	}

	indexPath := filepath.Join(workspace, ".chatnerd", "index.db")
	idx, err := store.OpenIndex(indexPath)
	if err != nil {
		logging.Get(logging.CategoryCapture).Warn("capture index unavailable: %v", err)
	} else {
		p.index = idx
	}

	return p, nil
}

// Close releases the capture index.
func (p *Pipeline) Close() error {
	if p.index == nil {
		return nil
	}
	return p.index.Close()
}

// RecordsDir resolves the configured records directory for this workspace,
// creating it on demand.
func (p *Pipeline) RecordsDir() (string, error) {
	dir := filepath.Join(p.workspace, filepath.FromSlash(p.cfg.RecordsDir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create records directory: %w", err)
	}
	return dir, nil
}

// Index exposes the capture ledger for the records CLI. May be nil.
func (p *Pipeline) Index() *store.Index {
	return p.index
}

// Capture processes one raw transcript capture end to end.
func (p *Pipeline) Capture(raw string) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryCapture, "Capture")
	defer timer.Stop()

	incoming := parse.Messages(raw)
	if len(incoming) == 0 {
		logging.CaptureDebug("nothing to persist (empty or unrecognized capture)")
		return Result{Action: reconcile.ActionSkip}, nil
	}

	export := types.ConversationExport{
		Metadata: types.ExportMetadata{
			ChatID:       uuid.NewString(),
			ExportedAt:   p.now(),
			MessageCount: len(incoming),
		},
		Messages: incoming,
	}

	dir, err := p.RecordsDir()
	if err != nil {
		return Result{}, err
	}

	currentPath, err := store.MostRecent(dir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to locate current record: %w", err)
	}

	stored, err := store.ReadMessages(currentPath)
	if err != nil {
		return Result{}, err
	}

	decision := reconcile.Decide(stored, incoming)
	result := Result{Action: decision.Action, MessageCount: len(incoming)}

	switch decision.Action {
	case reconcile.ActionSkip:
		return result, nil

	case reconcile.ActionCreate:
		id := idgen.NewID(fingerprint(incoming), export.Metadata.ExportedAt)
		path, err := store.Create(dir, id, export, p.format)
		if err != nil {
			return Result{}, err
		}
		result.Path = path
		result.NewMessages = len(incoming)

	case reconcile.ActionAppend:
		if err := store.Append(currentPath, decision.NewMessages); err != nil {
			return Result{}, err
		}
		result.Path = currentPath
		result.NewMessages = len(decision.NewMessages)

	case reconcile.ActionReplace:
		if err := store.Replace(currentPath, export); err != nil {
			return Result{}, err
		}
		result.Path = currentPath
	}

	p.recordInIndex(result)
	logging.Capture("%s: %s (%d messages, %d new)",
		result.Action, store.Display(p.workspace, result.Path), result.MessageCount, result.NewMessages)

	return result, nil
}

// CaptureFile reads a transcript file and processes it as a capture event.
func (p *Pipeline) CaptureFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read transcript: %w", err)
	}
	return p.Capture(string(data))
}

// recordInIndex appends the event to the ledger. Index failures are logged,
// never surfaced — the record file on disk is already the truth.
func (p *Pipeline) recordInIndex(result Result) {
	if p.index == nil {
		return
	}
	display := store.Display(p.workspace, result.Path)
	if err := p.index.RecordCapture(display, result.Action.String(), result.MessageCount, result.NewMessages); err != nil {
		logging.Get(logging.CategoryCapture).Warn("failed to index capture: %v", err)
	}
}

// fingerprint folds a message sequence into the content string fed to the
// identifier generator.
func fingerprint(msgs []types.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(":")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
