package qsub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/quatton/pbsub/pkg/qart"
	"github.com/quatton/pbsub/pkg/qerr"
	"github.com/quatton/pbsub/pkg/qlog"
)

// OutputArtifact is the archive file name for the submission output.
const OutputArtifact = "qsub.out"

// archiveArtifacts uploads the script and qsub output. Failures are logged
// and never change the Result.
func (s *Submitter) archiveArtifacts(ctx context.Context, log *qlog.Logger, result *Result, script []byte) {
	if s.archive == nil {
		return
	}

	meta := map[string]string{
		"job_id":    result.JobID,
		"job_name":  result.JobName,
		"status":    string(result.Status),
		"exit_code": strconv.Itoa(result.ExitCode),
	}

	uploads := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{name: ScriptName(result.JobID), data: script, contentType: "text/x-shellscript"},
		{name: OutputArtifact, data: result.Output, contentType: "text/plain"},
	}

	for _, u := range uploads {
		key := qart.SubmissionKey(result.JobID, u.name)
		if _, err := s.archive.Upload(ctx, key, bytes.NewReader(u.data), int64(len(u.data)), u.contentType, meta); err != nil {
			log.Warn("failed to archive artifact", "key", key, "error", err)
			continue
		}
		log.Debug("archived artifact", "key", key)
	}
}

// ListArtifacts returns what was archived for jobID.
func ListArtifacts(ctx context.Context, store qart.Store, jobID string) ([]*qart.Artifact, error) {
	artifacts, err := store.List(ctx, qart.SubmissionPrefix(jobID))
	if err != nil {
		return nil, qerr.New(qerr.CodeStore, fmt.Errorf("listing artifacts for %s: %w", jobID, err))
	}
	return artifacts, nil
}

// OpenArtifact opens one archived file of jobID, such as ScriptName(jobID)
// or OutputArtifact. A missing artifact yields qart.ErrNotFound.
func OpenArtifact(ctx context.Context, store qart.Store, jobID, name string) (io.ReadCloser, error) {
	rc, err := store.Download(ctx, qart.SubmissionKey(jobID, name))
	if errors.Is(err, qart.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, qerr.New(qerr.CodeStore, fmt.Errorf("downloading %s for %s: %w", name, jobID, err))
	}
	return rc, nil
}
