package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const collectionTranscripts = "transcripts"

// Firestore implements Repository with Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

// New creates a Firestore repository
func New(projectID, databaseID string) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(context.Background(), projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the firestore client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutTranscript(ctx context.Context, transcript *model.Transcript) error {
	doc := r.client.Collection(collectionTranscripts).Doc(string(transcript.ID))
	if _, err := doc.Set(ctx, transcript); err != nil {
		return goerr.Wrap(err, "failed to put transcript", goerr.V("transcript_id", transcript.ID))
	}
	return nil
}

func (r *Firestore) GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	snap, err := r.client.Collection(collectionTranscripts).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "transcript not found", goerr.V("transcript_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("transcript_id", id))
	}

	var transcript model.Transcript
	if err := snap.DataTo(&transcript); err != nil {
		return nil, goerr.Wrap(err, "failed to decode transcript", goerr.V("transcript_id", id))
	}
	return &transcript, nil
}

func (r *Firestore) ListTranscripts(ctx context.Context, limit int) ([]*model.Transcript, error) {
	query := r.client.Collection(collectionTranscripts).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var transcripts []*model.Transcript
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate transcripts")
		}

		var transcript model.Transcript
		if err := snap.DataTo(&transcript); err != nil {
			return nil, goerr.Wrap(err, "failed to decode transcript", goerr.V("doc_id", snap.Ref.ID))
		}
		transcripts = append(transcripts, &transcript)
	}

	return transcripts, nil
}
