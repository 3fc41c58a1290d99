package pipeline

import (
	"log/slog"
	"time"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

// Assembler builds index records. Now is injectable for tests.
type Assembler struct {
	Now    func() time.Time
	Logger *slog.Logger
}

func (a *Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// Assemble builds the record for ref. meta and metaErr are the result of the
// best-effort head call: when metaErr is non-nil, or the timestamp is
// missing, LastModified falls back to the assembly time.
func (a *Assembler) Assemble(ref StorageReference, text string, meta models.ObjectMetadata, metaErr error) models.DocumentRecord {
	now := a.now()
	lastModified := now
	switch {
	case metaErr != nil:
		logger := a.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("Could not get object metadata, using current time.", "key", ref.DecodedKey, "error", metaErr)
	case !meta.LastModified.IsZero():
		lastModified = meta.LastModified.UTC()
	}

	return models.DocumentRecord{
		Content:      text,
		Title:        ref.Title(),
		DocumentID:   ref.RawKey,
		FileType:     ref.Extension(),
		UploadDate:   now,
		LastModified: lastModified,
	}
}
