// Package render turns a ConversationExport into its persisted document forms.
//
// The Markdown form is the canonical record layout: a title heading derived
// from the first user message, a metadata line, then one block per message
// with a bold role label and the content verbatim. A horizontal rule sits
// between consecutive blocks, never before the first or after the last — the
// parser relies on that shape to re-parse records byte-for-byte.
//
// Rendering is pure (export in, string out) so replace-on-edit is a full
// re-render with no patching and no partial-write states to reason about.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chatnerd/internal/types"
)

// TitleLimit is the maximum title length in characters.
const TitleLimit = 80

const attribution = "Cursor"

// Title derives the record title from the first user message, truncated to
// TitleLimit characters. Multi-line prompts contribute only their first line.
func Title(msgs []types.Message) string {
	content := types.FirstUserContent(msgs)
	if content == "" {
		return "Untitled conversation"
	}
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[:idx]
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "Untitled conversation"
	}
	runes := []rune(content)
	if len(runes) > TitleLimit {
		content = strings.TrimSpace(string(runes[:TitleLimit]))
	}
	return content
}

// Markdown renders the full document form of an export.
func Markdown(export types.ConversationExport) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(Title(export.Messages))
	b.WriteString("\n\n")

	exportedAt := export.Metadata.ExportedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now()
	}
	fmt.Fprintf(&b, "_Exported on %s from %s_\n",
		exportedAt.UTC().Format("2006-01-02 15:04:05"), attribution)

	if len(export.Messages) > 0 {
		b.WriteString("\n")
		b.WriteString(MessageBlocks(export.Messages))
	}

	return b.String()
}

// MessageBlocks renders only the message blocks, separated by horizontal
// rules. This is the fragment appended to an existing record on continuation,
// so it must match the block shape Markdown emits exactly.
func MessageBlocks(msgs []types.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "**%s**\n\n", m.Role.DisplayLabel())
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// AppendBlocks renders the fragment to add to the end of an existing document:
// a leading separator, then the new message blocks.
func AppendBlocks(msgs []types.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return "\n---\n\n" + MessageBlocks(msgs)
}

// JSON renders the structured record form, indented for readability.
func JSON(export types.ConversationExport) (string, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}
	return string(data) + "\n", nil
}
