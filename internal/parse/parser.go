// Package parse converts raw captured transcript text into an ordered message
// sequence. Three input shapes are tolerated: the labeled-block Markdown form
// (bold role markers separated by horizontal rules — the same form the
// renderer emits, so persisted records re-parse through here), a simple
// "Role:" prefixed line format, and a JSON array of {role, content} objects.
//
// Malformed, empty, or unrecognized input yields an empty sequence, never an
// error: downstream reconciliation degenerates safely to "nothing to persist".
//
// One known ambiguity in the labeled-block form: a bare bold role label on its
// own line inside message content, outside a code fence, is indistinguishable
// from a real block marker and splits the message on re-parse. Content inside
// fences is safe; there is no escaping for the bare case.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"chatnerd/internal/logging"
	"chatnerd/internal/types"
)

var (
	boldMarkerRe = regexp.MustCompile(`^\*\*([A-Za-z]+)\*\*$`)
	prefixRe     = regexp.MustCompile(`^(?i)(user|human|you|assistant|cursor|ai|agent):\s?(.*)$`)
)

// Messages parses raw captured text into an ordered message sequence.
func Messages(raw string) []types.Message {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		if msgs := parseJSON(trimmed); msgs != nil {
			logging.ParseDebug("parsed %d messages from JSON array", len(msgs))
			return msgs
		}
	}

	if msgs := parseLabeledBlocks(trimmed); msgs != nil {
		logging.ParseDebug("parsed %d messages from labeled blocks", len(msgs))
		return msgs
	}

	if msgs := parsePrefixLines(trimmed); msgs != nil {
		logging.ParseDebug("parsed %d messages from prefixed lines", len(msgs))
		return msgs
	}

	logging.ParseDebug("unrecognized transcript format (%d bytes)", len(raw))
	return nil
}

type jsonMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// parseJSON handles a JSON array of {role, content} objects. Entries whose
// role is not a known variant are dropped at this boundary.
func parseJSON(raw string) []types.Message {
	var items []jsonMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}

	msgs := make([]types.Message, 0, len(items))
	for _, item := range items {
		role, ok := types.ParseRole(item.Role)
		if !ok || item.Content == "" {
			continue
		}
		m := types.Message{Role: role, Content: item.Content}
		if item.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, item.Timestamp); err == nil {
				m.Timestamp = ts
			}
		}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		return nil
	}
	return msgs
}

// parseLabeledBlocks handles the rendered Markdown form: a bold role label on
// its own line starts a block, a "---" rule separates consecutive blocks.
// Anything before the first marker (title heading, metadata line) is skipped.
// A "---" inside message content survives because only the single separator
// line directly before the next marker is stripped.
func parseLabeledBlocks(raw string) []types.Message {
	lines := strings.Split(raw, "\n")

	var msgs []types.Message
	var current *types.Message
	var content []string

	flush := func(sawMarker bool) {
		if current == nil {
			return
		}
		current.Content = trimBlock(content, sawMarker)
		if current.Content != "" {
			msgs = append(msgs, *current)
		}
		current = nil
		content = nil
	}

	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := boldMarkerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				if role, ok := types.ParseRole(m[1]); ok {
					flush(true)
					current = &types.Message{Role: role}
					continue
				}
			}
		}
		if current != nil {
			content = append(content, line)
		}
	}
	flush(false)

	if len(msgs) == 0 {
		return nil
	}
	return msgs
}

// trimBlock trims surrounding blank lines from a block's content. When the
// block was terminated by a following role marker, the single separator rule
// left over from block splitting is dropped as well; the final block of a
// document has no separator, so a trailing "---" there is real content.
func trimBlock(lines []string, sawMarker bool) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if sawMarker && end > start && strings.TrimSpace(lines[end-1]) == "---" {
		end--
		for end > start && strings.TrimSpace(lines[end-1]) == "" {
			end--
		}
	}
	return strings.Join(lines[start:end], "\n")
}

// parsePrefixLines handles the "User: ..." / "Cursor: ..." line format.
// Lines without a role prefix continue the current message.
func parsePrefixLines(raw string) []types.Message {
	lines := strings.Split(raw, "\n")

	var msgs []types.Message
	var current *types.Message
	var content []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(content, "\n"))
		if current.Content != "" {
			msgs = append(msgs, *current)
		}
		current = nil
		content = nil
	}

	for _, line := range lines {
		if m := prefixRe.FindStringSubmatch(line); m != nil {
			if role, ok := types.ParseRole(m[1]); ok {
				flush()
				current = &types.Message{Role: role}
				content = append(content, m[2])
				continue
			}
		}
		if current != nil {
			content = append(content, line)
		}
	}
	flush()

	if len(msgs) == 0 {
		return nil
	}
	return msgs
}
