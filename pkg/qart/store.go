// Package qart archives submission artifacts (rendered job scripts and
// scheduler output) in S3-compatible storage.
package qart

import (
	"context"
	"io"
	"path"
	"time"
)

// Artifact represents a stored artifact with metadata.
type Artifact struct {
	Key          string            `json:"key"`          // S3 key (e.g., "submissions/job1/job1.pbs")
	Bucket       string            `json:"bucket"`       // Bucket name
	Size         int64             `json:"size"`         // Size in bytes
	ContentType  string            `json:"content_type"` // MIME type
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Store defines the interface for artifact storage operations.
type Store interface {
	// Upload uploads size bytes from reader. size may be -1 when unknown.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (*Artifact, error)

	// Download retrieves an artifact by key. Returns ErrNotFound if missing.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// List lists all artifacts with the given prefix.
	List(ctx context.Context, prefix string) ([]*Artifact, error)

	// EnsureBucket ensures the bucket exists, creating it if necessary.
	EnsureBucket(ctx context.Context) error
}

// SubmissionPrefix returns the prefix under which a job's artifacts live.
func SubmissionPrefix(jobID string) string {
	return "submissions/" + jobID + "/"
}

// SubmissionKey returns the full key for one of a job's artifacts.
// Only the base name of filename is used.
func SubmissionKey(jobID, filename string) string {
	return SubmissionPrefix(jobID) + path.Base(filename)
}
