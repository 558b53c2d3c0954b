// Package rules implements the local rule-based responder.
//
// Matching is an ordered table; the first rule that matches wins and
// the fallback always matches last. Queries are trimmed and lowercased
// for matching, but the echo rule returns the trimmed input with its
// original case.
package rules

import (
	"strings"
	"time"

	"github.com/parley-cli/parley/internal/transcript"
)

// historyTurns is how many recent turns the history rule renders.
const historyTurns = 10

// Fixed responses.
const (
	greetingResponse = "Hello! I am your local assistant. Ask me to do something or type /help for commands."
	identityResponse = "I'm a small CLI assistant. You can run me with an OpenAI key to use the OpenAI API."
	fallbackResponse = "I don't know that yet. Try /help or run with OPENAI_API_KEY for smarter answers."
)

// HelpText is the command summary returned by the help rule. The shell
// prints the same text for its /help command.
const HelpText = "Commands:\n" +
	"  /help        Show this help\n" +
	"  /exit        Exit the assistant\n" +
	"  /history     Show the last interactions (JSON)\n" +
	"  /mode        Show current mode (local or openai)\n" +
	"You can also ask normal questions. Prefix with 'echo ' to echo text."

// HistoryFunc returns the most recent n turns of the conversation,
// oldest first.
type HistoryFunc func(n int) []transcript.Turn

// Responder answers queries from the rule table.
type Responder struct {
	history HistoryFunc
	now     func() time.Time // stubbed in tests
}

// NewResponder builds a Responder that reads conversation history from
// history when the history rule fires.
func NewResponder(history HistoryFunc) *Responder {
	return &Responder{
		history: history,
		now:     time.Now,
	}
}

// Reply answers query from the rule table. It is deterministic for a
// given query except for the time rule, which reads the clock. It
// never fails; the fallback response covers everything the table
// doesn't.
func (r *Responder) Reply(query string) string {
	raw := strings.TrimSpace(query)
	q := strings.ToLower(raw)

	switch q {
	case "hi", "hello", "hey":
		return greetingResponse
	}

	if strings.HasPrefix(q, "what is your name") || strings.HasPrefix(q, "who are you") {
		return identityResponse
	}

	// Matches "time" anywhere in the query, so "sometimes I wonder"
	// lands here too. The breadth is intentional and pinned by tests.
	if strings.Contains(q, "time") {
		return "Current time: " + r.now().Format(time.RFC3339)
	}

	if strings.HasPrefix(q, "echo ") {
		return raw[len("echo "):]
	}

	switch q {
	case "help", "/help":
		return HelpText
	case "history", "/history":
		return transcript.FormatJSON(r.history(historyTurns))
	}

	return fallbackResponse
}
