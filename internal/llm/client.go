// Package llm provides the remote chat-completion client.
package llm

import (
	"context"
	"errors"
)

// Message is a single chat message in the chat-completions wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrMalformed reports a response that arrived with a success status
// but could not be used: an undecodable body, or one with no choices.
// Detect it with errors.Is.
var ErrMalformed = errors.New("malformed response")

// Client is the interface the assistant uses to reach a remote model.
type Client interface {
	// Chat sends the conversation and returns the model's reply text,
	// trimmed of surrounding whitespace.
	Chat(ctx context.Context, messages []Message) (string, error)
}
