// Package reconcile classifies the relationship between a previously persisted
// message sequence and a freshly captured one, and computes the minimal update.
//
// There is no stable conversation ID across captures — the editor mints a new
// chatId on every export — so classification uses only content-identity
// equality and position. Three outcomes exist: continuation (append the
// suffix), edited prompt (replace the whole record), unrelated (create a new
// record).
package reconcile

import (
	"chatnerd/internal/logging"
	"chatnerd/internal/types"
)

// Action is the persistence operation a decision resolves to.
type Action int

const (
	// ActionSkip means nothing to persist (empty capture or same-state duplicate).
	ActionSkip Action = iota
	// ActionCreate persists incoming as a brand-new record.
	ActionCreate
	// ActionAppend appends Decision.NewMessages to the current record.
	ActionAppend
	// ActionReplace re-renders the current record from incoming in full.
	ActionReplace
)

// String returns the action name for logs and the capture index.
func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionCreate:
		return "create"
	case ActionAppend:
		return "append"
	case ActionReplace:
		return "replace"
	}
	return "unknown"
}

// Decision is the computed minimal update for one capture event.
type Decision struct {
	Action Action
	// NewMessages is the suffix to append. Only populated for ActionAppend.
	NewMessages []types.Message
}

// IsContinuation reports whether incoming is a strict extension of stored:
// every stored message matches positionally under content-identity equality,
// and incoming is at least as long. An empty stored sequence is trivially
// continued by anything (first-ever capture). Equal-length full matches are
// same-state duplicates and still count as continuation with zero new
// messages.
func IsContinuation(stored, incoming []types.Message) bool {
	if len(incoming) < len(stored) {
		return false
	}
	for i := range stored {
		if !stored[i].ContentEqual(incoming[i]) {
			return false
		}
	}
	return true
}

// IsEditedPrompt reports whether incoming is stored with only its first
// message's content changed. Assistant responses are immutable once generated,
// so the only edit the editor can produce is a re-sent leading prompt; edits
// past index 0 are deliberately not detected and fall through to unrelated.
// Extra messages beyond stored's length are carried through as new content.
func IsEditedPrompt(stored, incoming []types.Message) bool {
	if len(stored) == 0 || len(incoming) < len(stored) {
		return false
	}
	if IsContinuation(stored, incoming) {
		return false
	}
	if stored[0].ContentEqual(incoming[0]) {
		return false
	}
	for i := 1; i < len(stored); i++ {
		if !stored[i].ContentEqual(incoming[i]) {
			return false
		}
	}
	return true
}

// Decide applies the decision policy: continuation first, then edited prompt,
// else unrelated. Empty incoming never creates a record.
func Decide(stored, incoming []types.Message) Decision {
	if len(incoming) == 0 {
		logging.ReconcileDebug("empty incoming sequence, skipping")
		return Decision{Action: ActionSkip}
	}

	if IsContinuation(stored, incoming) {
		if len(stored) == 0 {
			logging.Reconcile("first capture: %d messages", len(incoming))
			return Decision{Action: ActionCreate}
		}
		suffix := incoming[len(stored):]
		if len(suffix) == 0 {
			logging.ReconcileDebug("same-state duplicate (%d messages), skipping", len(stored))
			return Decision{Action: ActionSkip}
		}
		logging.Reconcile("continuation: %d stored + %d new", len(stored), len(suffix))
		return Decision{Action: ActionAppend, NewMessages: suffix}
	}

	if IsEditedPrompt(stored, incoming) {
		logging.Reconcile("edited prompt: replacing %d messages with %d", len(stored), len(incoming))
		return Decision{Action: ActionReplace}
	}

	logging.Reconcile("unrelated conversation: creating new record (%d messages)", len(incoming))
	return Decision{Action: ActionCreate}
}
