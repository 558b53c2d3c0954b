// Package transcript provides the in-memory conversation record.
//
// The transcript lives for one process run only. There is no
// persistence and no pruning; every exchange stays until exit.
package transcript

import "encoding/json"

// Role identifies who produced a Turn.
type Role string

// The two roles a Turn can carry.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in the conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Log is an append-only record of Turns, oldest first.
//
// A Log is not safe for concurrent use. Parley runs single-goroutine
// and each Log is owned by one assistant for one session, so there is
// deliberately no locking here.
type Log struct {
	turns []Turn
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Append records one Turn at the end of the log. Existing Turns are
// never modified or reordered.
func (l *Log) Append(role Role, text string) {
	l.turns = append(l.turns, Turn{Role: role, Text: text})
}

// Len returns the number of Turns recorded.
func (l *Log) Len() int {
	return len(l.turns)
}

// All returns a copy of every Turn, oldest first. Callers cannot
// mutate the log through the returned slice.
func (l *Log) All() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Tail returns a copy of the last n Turns, oldest first. A log with
// fewer than n Turns yields all of them; n <= 0 yields an empty slice.
func (l *Log) Tail(n int) []Turn {
	if n <= 0 {
		return []Turn{}
	}
	if n > len(l.turns) {
		n = len(l.turns)
	}
	out := make([]Turn, n)
	copy(out, l.turns[len(l.turns)-n:])
	return out
}

// FormatJSON renders turns as a two-space-indented JSON array of
// {"role", "text"} objects. Nil or empty input renders as "[]".
func FormatJSON(turns []Turn) string {
	if len(turns) == 0 {
		return "[]"
	}
	// Turn is two plain strings; marshalling it cannot fail.
	out, _ := json.MarshalIndent(turns, "", "  ")
	return string(out)
}
