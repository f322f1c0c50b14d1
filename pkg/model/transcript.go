package model

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptID string

// NewTranscriptID generates a new unique TranscriptID
func NewTranscriptID() TranscriptID {
	return TranscriptID(uuid.Must(uuid.NewV7()).String())
}

// Transcript is an exported snapshot of one agent conversation
type Transcript struct {
	ID           TranscriptID `firestore:"id" json:"id"`
	AgentID      AgentID      `firestore:"agent_id" json:"agent_id"`
	Title        string       `firestore:"title" json:"title"`
	MessageCount int          `firestore:"message_count" json:"message_count"`
	ObjectKey    string       `firestore:"object_key" json:"object_key"`
	CreatedAt    time.Time    `firestore:"created_at" json:"created_at"`

	// Messages are kept in object storage, not in the index document
	Messages []*Message `firestore:"-" json:"messages,omitempty"`
}
