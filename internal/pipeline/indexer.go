package pipeline

import (
	"context"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

// DefaultIndexName is the index the query side searches.
const DefaultIndexName = "enterprise-docs"

// Indexer commits records to one named index.
type Indexer struct {
	Index     Index
	IndexName string
}

// Commit writes rec under its DocumentID. Failures are not retried.
func (i *Indexer) Commit(ctx context.Context, rec models.DocumentRecord) error {
	name := i.IndexName
	if name == "" {
		name = DefaultIndexName
	}
	if err := i.Index.Put(ctx, name, rec.DocumentID, rec); err != nil {
		return &IndexCommitError{DocumentID: rec.DocumentID, Err: err}
	}
	return nil
}
