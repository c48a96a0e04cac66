package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when a requested object does not exist.
// Callers decide whether a missing document is fatal for the run.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage captures the minimal S3-compatible operations the report
// engine needs: fetching JSON input documents, persisting the finished
// workbook, and issuing a time-limited retrieval reference for it.
type ObjectStorage interface {
	FetchJSON(ctx context.Context, key string, out any) error
	UploadFile(ctx context.Context, key string, localPath string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
