package gcp

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreIndex stores document records as Firestore documents, one
// collection per index name. Firestore writes are strongly consistent, so a
// record is readable as soon as Put returns.
type FirestoreIndex struct {
	client *firestore.Client
}

// NewFirestoreIndex wraps an existing Firestore client.
func NewFirestoreIndex(client *firestore.Client) *FirestoreIndex {
	return &FirestoreIndex{client: client}
}

// DocID maps a storage key to a Firestore document ID. Storage keys may
// contain '/', which Firestore reserves, so the key is base64url encoded.
// The mapping is one-to-one; the raw key itself is kept in document_id.
func DocID(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// Put overwrites the document stored under id.
func (x *FirestoreIndex) Put(ctx context.Context, index, id string, doc models.DocumentRecord) error {
	if _, err := x.client.Collection(index).Doc(DocID(id)).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", index, id, err)
	}
	return nil
}

// Get returns the document stored under id, or ok=false if there is none.
func (x *FirestoreIndex) Get(ctx context.Context, index, id string) (models.DocumentRecord, bool, error) {
	snap, err := x.client.Collection(index).Doc(DocID(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.DocumentRecord{}, false, nil
	}
	if err != nil {
		return models.DocumentRecord{}, false, fmt.Errorf("failed to read %s/%s: %w", index, id, err)
	}
	var doc models.DocumentRecord
	if err := snap.DataTo(&doc); err != nil {
		return models.DocumentRecord{}, false, fmt.Errorf("failed to decode %s/%s: %w", index, id, err)
	}
	return doc, true, nil
}

// Count returns the number of documents in an index, using a server-side
// aggregation so no documents are read.
func (x *FirestoreIndex) Count(ctx context.Context, index string) (int, error) {
	res, err := x.client.Collection(index).NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", index, err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result type %T", res["all"])
	}
	return int(v.GetIntegerValue()), nil
}
