package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

// ErrNoRecords is returned for an event payload that names no objects.
var ErrNoRecords = errors.New("event names no objects")

// DecodeBatch turns an event payload into an ingestion batch. It accepts an
// S3-style {"Records": [...]} notification, whose keys are percent-encoded,
// or a single Cloud Storage object, whose name is literal.
func DecodeBatch(data []byte) (models.IngestionBatch, error) {
	var envelope struct {
		Records json.RawMessage `json:"Records"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return models.IngestionBatch{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	if len(envelope.Records) > 0 {
		var n models.S3Notification
		if err := json.Unmarshal(data, &n); err != nil {
			return models.IngestionBatch{}, fmt.Errorf("json.Unmarshal records: %w", err)
		}
		batch := models.IngestionBatch{Records: make([]models.IngestionRecord, 0, len(n.Records))}
		for _, r := range n.Records {
			batch.Records = append(batch.Records, models.IngestionRecord{Bucket: r.S3.Bucket.Name, Key: r.S3.Object.Key})
		}
		if len(batch.Records) == 0 {
			return batch, ErrNoRecords
		}
		return batch, nil
	}

	var e models.GCSEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return models.IngestionBatch{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if e.Bucket == "" || e.Name == "" {
		return models.IngestionBatch{}, ErrNoRecords
	}
	// Object-finalized events carry the object name itself, not an encoded key.
	return models.IngestionBatch{Records: []models.IngestionRecord{{Bucket: e.Bucket, Key: e.Name, Literal: true}}}, nil
}
