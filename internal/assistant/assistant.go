// Package assistant dispatches questions to the local rule responder
// or a remote model, and records every exchange in the transcript.
package assistant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parley-cli/parley/internal/config"
	"github.com/parley-cli/parley/internal/llm"
	"github.com/parley-cli/parley/internal/rules"
	"github.com/parley-cli/parley/internal/transcript"
)

// Mode says where answers come from. It is decided when the assistant
// is built and never changes afterward.
type Mode int

const (
	// ModeLocal answers from the rule table.
	ModeLocal Mode = iota
	// ModeRemote proxies questions to the chat-completion endpoint.
	ModeRemote
)

// String returns "local" or "remote".
func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// remoteFailurePrefix starts every reply produced by a failed remote
// request. The failure is an answer, not a crash; the error detail
// follows the prefix inline.
const remoteFailurePrefix = "OpenAI request failed: "

// newRemoteClient builds the remote client. Tests swap it to exercise
// construction failures without a network.
var newRemoteClient = func(cfg config.OpenAIConfig, logger *slog.Logger) (llm.Client, error) {
	return llm.NewOpenAIClient(cfg, logger)
}

// Assistant owns one conversation: the transcript, the rule responder,
// and (in remote mode) the model client.
type Assistant struct {
	logger *slog.Logger
	log    *transcript.Log
	rules  *rules.Responder
	client llm.Client
	mode   Mode
}

// New builds an Assistant and decides its mode, once. Remote requires
// both preferRemote and a configured API key; any failure to build the
// remote client downgrades to local with a single logged notice.
func New(cfg *config.Config, preferRemote bool, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", uuid.NewString())

	a := &Assistant{
		logger: logger,
		log:    transcript.NewLog(),
		mode:   ModeLocal,
	}
	a.rules = rules.NewResponder(a.log.Tail)

	switch {
	case !preferRemote:
		// Local by request; nothing to announce.
	case cfg.OpenAI.APIKey == "":
		logger.Warn("OPENAI_API_KEY not found; falling back to local mode")
	default:
		client, err := newRemoteClient(cfg.OpenAI, logger)
		if err != nil {
			logger.Warn("failed to initialize OpenAI client; falling back to local mode", "error", err)
			break
		}
		a.client = client
		a.mode = ModeRemote
	}

	a.logger.Debug("assistant ready", "mode", a.mode.String())
	return a
}

// Mode reports where answers come from.
func (a *Assistant) Mode() Mode { return a.mode }

// Transcript returns the conversation log. The assistant owns it;
// callers read it through the log's copying accessors.
func (a *Assistant) Transcript() *transcript.Log { return a.log }

// Answer records query as a user turn, produces a reply, records the
// reply as an assistant turn, and returns it. Every call appends
// exactly those two turns, including when the remote request fails.
func (a *Assistant) Answer(ctx context.Context, query string) string {
	// Remote mode sends the conversation as it stood before this
	// question, so capture it before appending.
	prior := a.log.All()
	a.log.Append(transcript.RoleUser, query)

	var reply string
	if a.mode == ModeRemote {
		reply = a.remoteReply(ctx, prior, query)
	} else {
		reply = a.rules.Reply(query)
	}

	a.log.Append(transcript.RoleAssistant, reply)
	return reply
}

// remoteReply maps the prior conversation plus the new question into
// chat messages and asks the remote model. Failures come back as the
// reply text, never as a panic or a skipped transcript append.
func (a *Assistant) remoteReply(ctx context.Context, prior []transcript.Turn, query string) string {
	messages := make([]llm.Message, 0, len(prior)+1)
	for _, turn := range prior {
		messages = append(messages, llm.Message{
			Role:    string(turn.Role),
			Content: turn.Text,
		})
	}
	messages = append(messages, llm.Message{Role: "user", Content: query})

	a.logger.Info("calling remote model", "messages", len(messages))
	reply, err := a.client.Chat(ctx, messages)
	if err != nil {
		a.logger.Error("remote request failed", "error", err)
		return remoteFailurePrefix + err.Error()
	}
	return reply
}
