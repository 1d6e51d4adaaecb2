package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatnerd/internal/config"
	"chatnerd/internal/reconcile"
	"chatnerd/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	ws := t.TempDir()
	p, err := NewPipeline(ws, config.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, ws
}

func transcript(turns ...string) string {
	// turns alternate user/cursor
	var b strings.Builder
	for i, content := range turns {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		label := "User"
		if i%2 == 1 {
			label = "Cursor"
		}
		b.WriteString("**" + label + "**\n\n" + content + "\n")
	}
	return b.String()
}

func TestCapture_FirstCaptureCreates(t *testing.T) {
	p, ws := newTestPipeline(t)

	res, err := p.Capture(transcript("hello", "hi there"))
	require.NoError(t, err)

	assert.Equal(t, reconcile.ActionCreate, res.Action)
	assert.Equal(t, 2, res.MessageCount)
	require.NotEmpty(t, res.Path)
	assert.True(t, strings.HasPrefix(res.Path, filepath.Join(ws, ".cursor", "chat")))

	msgs, err := store.ReadMessages(res.Path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestCapture_EmptyInputIsNoOp(t *testing.T) {
	p, ws := newTestPipeline(t)

	res, err := p.Capture("   \n  ")
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionSkip, res.Action)

	// No empty record created
	entries, _ := os.ReadDir(filepath.Join(ws, ".cursor", "chat"))
	assert.Empty(t, entries)
}

func TestCapture_ContinuationAppends(t *testing.T) {
	p, _ := newTestPipeline(t)

	first, err := p.Capture(transcript("p1", "r1"))
	require.NoError(t, err)

	second, err := p.Capture(transcript("p1", "r1", "p2", "r2"))
	require.NoError(t, err)

	assert.Equal(t, reconcile.ActionAppend, second.Action)
	assert.Equal(t, first.Path, second.Path, "continuation reuses the current record")
	assert.Equal(t, 2, second.NewMessages)

	msgs, err := store.ReadMessages(second.Path)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "p2", msgs[2].Content)
	assert.Equal(t, "r2", msgs[3].Content)
}

func TestCapture_ContinuationAfterTrailingRuleContent(t *testing.T) {
	p, _ := newTestPipeline(t)

	// The stored record's last message ends with a "---" line. The read-back
	// must keep it, or the next capture misclassifies as unrelated and forks
	// a duplicate record.
	first, err := p.Capture(transcript("p1", "see below:\n---"))
	require.NoError(t, err)

	second, err := p.Capture(transcript("p1", "see below:\n---", "p2", "r2"))
	require.NoError(t, err)

	assert.Equal(t, reconcile.ActionAppend, second.Action)
	assert.Equal(t, first.Path, second.Path)

	msgs, err := store.ReadMessages(second.Path)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "see below:\n---", msgs[1].Content)
}

func TestCapture_DuplicateIsSkip(t *testing.T) {
	p, _ := newTestPipeline(t)

	raw := transcript("p1", "r1")
	_, err := p.Capture(raw)
	require.NoError(t, err)

	res, err := p.Capture(raw)
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionSkip, res.Action)
}

func TestCapture_EditedPromptReplaces(t *testing.T) {
	p, _ := newTestPipeline(t)

	first, err := p.Capture(transcript("prompt1", "response1"))
	require.NoError(t, err)

	second, err := p.Capture(transcript("prompt2", "response1"))
	require.NoError(t, err)

	assert.Equal(t, reconcile.ActionReplace, second.Action)
	assert.Equal(t, first.Path, second.Path)

	data, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, "prompt2")
	assert.Contains(t, doc, "response1")
	assert.NotContains(t, doc, "prompt1")
}

func TestCapture_EditedPromptWithNewTailReplaces(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Capture(transcript("p1", "r1"))
	require.NoError(t, err)

	res, err := p.Capture(transcript("p2", "r1", "p3", "r3"))
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionReplace, res.Action)

	msgs, err := store.ReadMessages(res.Path)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "p2", msgs[0].Content)
	assert.Equal(t, "r3", msgs[3].Content)
}

func TestCapture_UnrelatedCreatesSecondRecord(t *testing.T) {
	p, ws := newTestPipeline(t)

	first, err := p.Capture(transcript("p1", "r1"))
	require.NoError(t, err)

	second, err := p.Capture(transcript("something else entirely", "a different answer"))
	require.NoError(t, err)

	assert.Equal(t, reconcile.ActionCreate, second.Action)
	assert.NotEqual(t, first.Path, second.Path)

	// Old record untouched
	msgs, err := store.ReadMessages(first.Path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "p1", msgs[0].Content)

	entries, _ := os.ReadDir(filepath.Join(ws, ".cursor", "chat"))
	assert.Len(t, entries, 2)
}

func TestCapture_ReconcilesAgainstMostRecentOnly(t *testing.T) {
	p, _ := newTestPipeline(t)

	// Record A, then unrelated record B. A continuation of B must append to B.
	_, err := p.Capture(transcript("a1", "ar1"))
	require.NoError(t, err)

	b, err := p.Capture(transcript("b1", "br1"))
	require.NoError(t, err)

	res, err := p.Capture(transcript("b1", "br1", "b2", "br2"))
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionAppend, res.Action)
	assert.Equal(t, b.Path, res.Path)
}

func TestCapture_JSONFormat(t *testing.T) {
	ws := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Format = "json"
	p, err := NewPipeline(ws, cfg)
	require.NoError(t, err)
	defer p.Close()

	res, err := p.Capture(transcript("p1", "r1"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Path, ".json"))

	// Continuation across json records
	res2, err := p.Capture(transcript("p1", "r1", "p2", "r2"))
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionAppend, res2.Action)

	msgs, err := store.ReadMessages(res2.Path)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestCapture_IndexRecordsHistory(t *testing.T) {
	p, _ := newTestPipeline(t)
	require.NotNil(t, p.Index())

	_, err := p.Capture(transcript("p1", "r1"))
	require.NoError(t, err)
	_, err = p.Capture(transcript("p1", "r1", "p2", "r2"))
	require.NoError(t, err)

	history, err := p.Index().History(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "append", history[0].Decision)
	assert.Equal(t, "create", history[1].Decision)
}

func TestCaptureFile(t *testing.T) {
	p, ws := newTestPipeline(t)

	path := filepath.Join(ws, "dropped.md")
	require.NoError(t, os.WriteFile(path, []byte(transcript("from a file", "ack")), 0644))

	res, err := p.CaptureFile(path)
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionCreate, res.Action)
}

func TestCaptureFile_Missing(t *testing.T) {
	p, _ := newTestPipeline(t)
	_, err := p.CaptureFile(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}

func TestCapture_InvalidFormatRejectedAtConstruction(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Format = "xml"
	_, err := NewPipeline(t.TempDir(), cfg)
	assert.Error(t, err)
}

func TestNewPipeline_RequiresWorkspace(t *testing.T) {
	_, err := NewPipeline("", nil)
	assert.Error(t, err)
}
