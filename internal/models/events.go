package models

// GCSEvent is the data of a Cloud Storage object-finalized CloudEvent.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// S3Notification is an S3-style notification carrying a batch of records.
// Object keys arrive percent-encoded.
type S3Notification struct {
	Records []S3EventRecord `json:"Records"`
}

// S3EventRecord is one record of an S3Notification.
type S3EventRecord struct {
	S3 struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}
