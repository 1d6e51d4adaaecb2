package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"chatnerd/internal/parse"
	"chatnerd/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExport() types.ConversationExport {
	return types.ConversationExport{
		Metadata: types.ExportMetadata{
			ChatID:       "abc-123",
			ExportedAt:   time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC),
			MessageCount: 2,
		},
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "Why does the build fail?"},
			{Role: types.RoleAssistant, Content: "The import cycle is the cause."},
		},
	}
}

func TestTitle(t *testing.T) {
	t.Run("first user message", func(t *testing.T) {
		msgs := []types.Message{
			{Role: types.RoleAssistant, Content: "hi"},
			{Role: types.RoleUser, Content: "fix the tests"},
		}
		assert.Equal(t, "fix the tests", Title(msgs))
	})

	t.Run("truncates to 80 characters", func(t *testing.T) {
		long := strings.Repeat("abcde ", 30)
		title := Title([]types.Message{{Role: types.RoleUser, Content: long}})
		assert.LessOrEqual(t, len([]rune(title)), TitleLimit)
		assert.True(t, strings.HasPrefix(long, title))
	})

	t.Run("first line only", func(t *testing.T) {
		msgs := []types.Message{{Role: types.RoleUser, Content: "line one\nline two"}}
		assert.Equal(t, "line one", Title(msgs))
	})

	t.Run("fallback when no user message", func(t *testing.T) {
		assert.Equal(t, "Untitled conversation", Title(nil))
		assert.Equal(t, "Untitled conversation", Title([]types.Message{{Role: types.RoleAssistant, Content: "x"}}))
	})
}

func TestMarkdown_Structure(t *testing.T) {
	doc := Markdown(sampleExport())

	assert.True(t, strings.HasPrefix(doc, "# Why does the build fail?\n"))
	assert.Contains(t, doc, "_Exported on 2026-08-27 10:30:00 from Cursor_")
	assert.Contains(t, doc, "**User**\n\nWhy does the build fail?")
	assert.Contains(t, doc, "**Cursor**\n\nThe import cycle is the cause.")

	// Separator between blocks, never after the last one.
	assert.Equal(t, 1, strings.Count(doc, "\n---\n"))
	assert.False(t, strings.HasSuffix(strings.TrimRight(doc, "\n"), "---"))
}

func TestMarkdown_RoundTrip(t *testing.T) {
	export := sampleExport()
	doc := Markdown(export)

	got := parse.Messages(doc)
	if !types.MessagesEqual(export.Messages, got) {
		t.Fatalf("round-trip mismatch:\n%s", cmp.Diff(export.Messages, got))
	}

	// render(parse(render(X))) is stable.
	again := Markdown(types.ConversationExport{Metadata: export.Metadata, Messages: got})
	assert.Equal(t, doc, again)
}

func TestMarkdown_RoundTripWithCodeFences(t *testing.T) {
	export := types.ConversationExport{
		Metadata: types.ExportMetadata{ExportedAt: time.Now()},
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "Refactor this:\n\n```go\nfunc main() {}\n```"},
			{Role: types.RoleAssistant, Content: "Done:\n\n```go\nfunc main() { run() }\n```"},
		},
	}

	got := parse.Messages(Markdown(export))
	if !types.MessagesEqual(export.Messages, got) {
		t.Fatalf("round-trip mismatch:\n%s", cmp.Diff(export.Messages, got))
	}
}

func TestMarkdown_RoundTripTrailingRule(t *testing.T) {
	// Content ending in a "---" line looks like a block separator. It must
	// survive the round trip wherever it sits, including in the last message.
	export := types.ConversationExport{
		Metadata: types.ExportMetadata{ExportedAt: time.Now()},
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "look at this divider:\n---"},
			{Role: types.RoleAssistant, Content: "noted, mine ends with one too:\n---"},
		},
	}

	got := parse.Messages(Markdown(export))
	if !types.MessagesEqual(export.Messages, got) {
		t.Fatalf("round-trip mismatch:\n%s", cmp.Diff(export.Messages, got))
	}
}

func TestAppendBlocks_MatchesFullRender(t *testing.T) {
	// A record appended block-by-block must be byte-identical to rendering the
	// full conversation in one pass.
	all := []types.Message{
		{Role: types.RoleUser, Content: "p1"},
		{Role: types.RoleAssistant, Content: "r1"},
		{Role: types.RoleUser, Content: "p2"},
		{Role: types.RoleAssistant, Content: "r2"},
	}
	export := types.ConversationExport{
		Metadata: types.ExportMetadata{ExportedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		Messages: all,
	}

	full := Markdown(export)
	partial := Markdown(types.ConversationExport{Metadata: export.Metadata, Messages: all[:2]})
	appended := partial + AppendBlocks(all[2:])

	assert.Equal(t, full, appended)
}

func TestAppendBlocks_Empty(t *testing.T) {
	assert.Equal(t, "", AppendBlocks(nil))
}

func TestJSON(t *testing.T) {
	doc, err := JSON(sampleExport())
	require.NoError(t, err)

	var back types.ConversationExport
	require.NoError(t, json.Unmarshal([]byte(doc), &back))
	assert.Equal(t, "abc-123", back.Metadata.ChatID)
	require.Len(t, back.Messages, 2)
	assert.True(t, types.MessagesEqual(sampleExport().Messages, back.Messages))
}
