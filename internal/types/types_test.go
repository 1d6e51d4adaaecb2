package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"user", RoleUser, true},
		{"User", RoleUser, true},
		{"  HUMAN ", RoleUser, true},
		{"assistant", RoleAssistant, true},
		{"Cursor", RoleAssistant, true},
		{"ai", RoleAssistant, true},
		{"system", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRole(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestContentEqual_IgnoresTimestampAndMetadata(t *testing.T) {
	base := Message{Role: RoleUser, Content: "hello", Timestamp: time.Unix(100, 0)}
	same := Message{Role: RoleUser, Content: "hello", Timestamp: time.Unix(999, 0), Metadata: map[string]string{"k": "v"}}
	edited := Message{Role: RoleUser, Content: "hello!", Timestamp: time.Unix(100, 0)}
	otherRole := Message{Role: RoleAssistant, Content: "hello"}

	assert.True(t, base.ContentEqual(same))
	assert.False(t, base.ContentEqual(edited))
	assert.False(t, base.ContentEqual(otherRole))
}

func TestMessagesEqual(t *testing.T) {
	a := []Message{
		{Role: RoleUser, Content: "p1"},
		{Role: RoleAssistant, Content: "r1"},
	}
	b := []Message{
		{Role: RoleUser, Content: "p1", Timestamp: time.Now()},
		{Role: RoleAssistant, Content: "r1"},
	}

	assert.True(t, MessagesEqual(a, b))
	assert.True(t, MessagesEqual(nil, nil))
	assert.False(t, MessagesEqual(a, b[:1]))

	b[1].Content = "r2"
	assert.False(t, MessagesEqual(a, b))
}

func TestFirstUserContent(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: "greeting"},
		{Role: RoleUser, Content: "the question"},
	}
	assert.Equal(t, "the question", FirstUserContent(msgs))
	assert.Equal(t, "", FirstUserContent(nil))
	assert.Equal(t, "", FirstUserContent(msgs[:1]))
}
