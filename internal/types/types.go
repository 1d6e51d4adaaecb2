// Package types provides shared type definitions used across chatNERD packages.
// This package exists so the parser, reconciler, and store agree on one message
// shape without import cycles. Types here are foundational data structures with
// no complex dependencies.
package types

import (
	"strings"
	"time"
)

// Role identifies the author of a message. Only two variants exist; anything
// else is rejected at the parser boundary and never reaches downstream code.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole normalizes a raw role label to one of the two variants.
// "cursor" is the assistant's display label in captured transcripts.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "human", "you":
		return RoleUser, true
	case "assistant", "cursor", "ai", "agent":
		return RoleAssistant, true
	}
	return "", false
}

// DisplayLabel returns the label used in rendered Markdown blocks.
func (r Role) DisplayLabel() string {
	if r == RoleUser {
		return "User"
	}
	return "Cursor"
}

// Message is a single chat turn. Immutable once produced by the parser.
type Message struct {
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ContentEqual reports content-identity equality: role and content only.
// Timestamp and metadata are deliberately excluded — an edited prompt with an
// identical timestamp must still read as a different message, and the same
// content captured twice must read as the same one.
func (m Message) ContentEqual(other Message) bool {
	return m.Role == other.Role && m.Content == other.Content
}

// MessagesEqual reports element-wise content-identity equality.
func MessagesEqual(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].ContentEqual(b[i]) {
			return false
		}
	}
	return true
}

// ExportMetadata describes one capture event. ChatID is an ephemeral label
// minted per export — the same logical conversation gets a fresh ChatID on
// every capture, so it is never a reconciliation key.
type ExportMetadata struct {
	ChatID       string    `json:"chatId"`
	ExportedAt   time.Time `json:"exportedAt"`
	MessageCount int       `json:"messageCount"`
}

// ConversationExport is a parsed capture ready for rendering and persistence.
type ConversationExport struct {
	Metadata ExportMetadata `json:"metadata"`
	Messages []Message      `json:"messages"`
}

// FirstUserContent returns the content of the first user message, or "" when
// none exists. Used for record titles.
func FirstUserContent(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}
