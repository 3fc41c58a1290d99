package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"
)

// PlainTextStrategy reads already-textual objects directly.
type PlainTextStrategy struct {
	Store ObjectStore
}

// Extract decodes the object as UTF-8. Invalid sequences become U+FFFD.
func (s *PlainTextStrategy) Extract(ctx context.Context, ref StorageReference) ExtractionResult {
	data, err := s.Store.GetObject(ctx, ref.Bucket, ref.RawKey)
	if err != nil {
		return Failure(FailureStorageAccess, "failed to read object", err)
	}
	if len(data) == 0 {
		return Empty("object is empty")
	}
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return Success(text)
}
