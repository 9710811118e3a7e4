package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object operations needed for resume files and interview reports.
type ObjectStorage interface {
	// PutObject uploads size bytes from reader under objectKey.
	PutObject(ctx context.Context, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error

	// GetObject opens a reader for an object. Caller must close the returned reader.
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// StatObject returns size and content type for an object.
	StatObject(ctx context.Context, objectKey string) (ObjectStat, error)

	// RemoveObject deletes an object; removing a missing object is not an error.
	RemoveObject(ctx context.Context, objectKey string) error
}

// ObjectStat contains object metadata.
type ObjectStat struct {
	SizeBytes   int64
	ETag        string
	ContentType string
}
