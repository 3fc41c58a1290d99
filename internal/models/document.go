package models

import "time"

// DocumentRecord is the normalized document written to the search index.
// DocumentID is the storage object's raw key; re-ingesting the same key
// overwrites the previous record. The field names are what the query side reads.
type DocumentRecord struct {
	Content      string    `json:"content" firestore:"content" yaml:"content"`
	Title        string    `json:"title" firestore:"title" yaml:"title"`
	DocumentID   string    `json:"document_id" firestore:"document_id" yaml:"document_id"`
	FileType     string    `json:"file_type" firestore:"file_type" yaml:"file_type"`
	UploadDate   time.Time `json:"upload_date" firestore:"upload_date" yaml:"upload_date"`
	LastModified time.Time `json:"last_modified" firestore:"last_modified" yaml:"last_modified"`
}

// ObjectMetadata is the subset of object attributes the pipeline reads.
type ObjectMetadata struct {
	LastModified time.Time
	Size         int64
	ContentType  string
}
