package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/model"
)

// Memory implements Repository in process memory. Records are lost on exit.
type Memory struct {
	mu          sync.RWMutex
	transcripts map[model.TranscriptID]model.Transcript
}

func NewMemory() *Memory {
	return &Memory{
		transcripts: make(map[model.TranscriptID]model.Transcript),
	}
}

func (r *Memory) PutTranscript(ctx context.Context, transcript *model.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *transcript
	stored.Messages = nil
	r.transcripts[transcript.ID] = stored
	return nil
}

func (r *Memory) GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transcript, ok := r.transcripts[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "transcript not found", goerr.V("transcript_id", id))
	}
	return &transcript, nil
}

func (r *Memory) ListTranscripts(ctx context.Context, limit int) ([]*model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transcripts := make([]*model.Transcript, 0, len(r.transcripts))
	for _, t := range r.transcripts {
		transcripts = append(transcripts, &t)
	}

	slices.SortFunc(transcripts, func(a, b *model.Transcript) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if limit > 0 && len(transcripts) > limit {
		transcripts = transcripts[:limit]
	}
	return transcripts, nil
}

