package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for transcript index persistence
type Repository interface {
	// PutTranscript saves transcript metadata. Messages are not stored.
	PutTranscript(ctx context.Context, transcript *model.Transcript) error

	// GetTranscript retrieves transcript metadata by ID
	GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error)

	// ListTranscripts retrieves transcripts, newest first
	ListTranscripts(ctx context.Context, limit int) ([]*model.Transcript, error)
}
