// Package transcript exports conversations as JSON objects and keeps an index
// of them.
package transcript

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/adapter"
	"github.com/m-mizutani/parley/pkg/conversation"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/repository"
	"github.com/m-mizutani/parley/pkg/utils/logging"
)

var ErrEmptyConversation = goerr.New("conversation has no message")

const (
	titleMaxLength = 60
	untitled       = "(image)"
)

// UseCase provides transcript operations
type UseCase struct {
	repo    repository.Repository
	storage adapter.Storage
	store   *conversation.Store
	now     func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithClock sets the time source of export timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new transcript UseCase instance
func New(
	repo repository.Repository,
	storage adapter.Storage,
	store *conversation.Store,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:    repo,
		storage: storage,
		store:   store,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ObjectKey returns the storage key of a transcript
func ObjectKey(agentID model.AgentID, id model.TranscriptID) string {
	return "transcripts/" + string(agentID) + "/" + string(id) + ".json"
}

// Export saves the agent's current conversation. The conversation itself is
// left untouched.
func (uc *UseCase) Export(ctx context.Context, agentID model.AgentID) (*model.Transcript, error) {
	msgs := uc.store.Get(agentID)
	if len(msgs) == 0 {
		return nil, goerr.Wrap(ErrEmptyConversation, "nothing to export", goerr.V("agent_id", agentID))
	}

	id := model.NewTranscriptID()
	transcript := &model.Transcript{
		ID:           id,
		AgentID:      agentID,
		Title:        title(msgs),
		MessageCount: len(msgs),
		ObjectKey:    ObjectKey(agentID, id),
		CreatedAt:    uc.now(),
		Messages:     msgs,
	}

	// Save messages to storage
	writer, err := uc.storage.Put(ctx, transcript.ObjectKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage writer")
	}
	defer writer.Close()

	if err := json.NewEncoder(writer).Encode(msgs); err != nil {
		return nil, goerr.Wrap(err, "failed to write transcript to storage", goerr.V("key", transcript.ObjectKey))
	}

	if err := writer.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close storage writer", goerr.V("key", transcript.ObjectKey))
	}

	// Save metadata to repository
	if err := uc.repo.PutTranscript(ctx, transcript); err != nil {
		return nil, goerr.Wrap(err, "failed to put transcript to repository")
	}

	logging.From(ctx).Info("transcript exported",
		"transcript_id", transcript.ID,
		"agent_id", agentID,
		"messages", transcript.MessageCount)

	return transcript, nil
}

// List returns transcript metadata, newest first. Messages are not loaded.
func (uc *UseCase) List(ctx context.Context, limit int) ([]*model.Transcript, error) {
	transcripts, err := uc.repo.ListTranscripts(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list transcripts")
	}
	return transcripts, nil
}

// Load returns a transcript with its messages
func (uc *UseCase) Load(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	transcript, err := uc.repo.GetTranscript(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get transcript from repository")
	}

	reader, err := uc.storage.Get(ctx, transcript.ObjectKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get transcript from storage")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read transcript data")
	}

	var msgs []*model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal transcript messages", goerr.V("key", transcript.ObjectKey))
	}

	transcript.Messages = msgs
	return transcript, nil
}

// title is the first line of the first user message with text
func title(msgs []*model.Message) string {
	for _, msg := range msgs {
		if msg.Sender != model.SenderUser || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		line, _, _ := strings.Cut(strings.TrimSpace(msg.Text), "\n")
		if utf8.RuneCountInString(line) > titleMaxLength {
			line = string([]rune(line)[:titleMaxLength]) + "..."
		}
		return line
	}
	return untitled
}
