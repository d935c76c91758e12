package qsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/quatton/pbsub/pkg/kv"
	"github.com/quatton/pbsub/pkg/qerr"
	"github.com/quatton/pbsub/pkg/qlog"
)

const (
	lockKeyPrefix   = "pbsub:lock:"
	recordKeyPrefix = "pbsub:submission:"
)

// LockKey returns the guard key for jobID.
func LockKey(jobID string) string {
	return lockKeyPrefix + jobID
}

// RecordKey returns the key the Result for jobID is stored under.
func RecordKey(jobID string) string {
	return recordKeyPrefix + jobID
}

// lockOwner identifies one guard acquisition, so a release never removes
// a lock another submitter took after ours expired.
func lockOwner() []byte {
	host, _ := os.Hostname()
	return []byte(fmt.Sprintf("%s:%d:%s", host, os.Getpid(), uuid.NewString()))
}

// acquire takes the job-id guard. The returned func releases it and is
// always safe to call.
func (s *Submitter) acquire(ctx context.Context, jobID string) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}

	owner := lockOwner()
	ok, err := s.guard.SetNX(ctx, LockKey(jobID), owner, s.guardTTL)
	if err != nil {
		return nil, qerr.New(qerr.CodeStore, fmt.Errorf("acquiring guard for %s: %w", jobID, err))
	}
	if !ok {
		return nil, qerr.Newf(qerr.CodeInUse, "job %q is already being submitted", jobID)
	}

	return func() {
		released, err := s.guard.DeleteIfEquals(context.WithoutCancel(ctx), LockKey(jobID), owner)
		switch {
		case err != nil:
			s.log.Warn("failed to release job guard", "job_id", jobID, "error", err)
		case !released:
			s.log.Warn("job guard expired before release", "job_id", jobID, "ttl", s.guardTTL)
		}
	}, nil
}

func (s *Submitter) record(ctx context.Context, log *qlog.Logger, result *Result) {
	if s.records == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn("failed to encode submission record", "error", err)
		return
	}
	if err := s.records.Set(ctx, RecordKey(result.JobID), data, s.recordTTL); err != nil {
		log.Warn("failed to store submission record", "error", err)
	}
}

// LoadRecord returns the last Result recorded for jobID by a Submitter
// configured WithRecorder. A missing record yields kv.ErrNotFound.
func LoadRecord(ctx context.Context, store kv.Store, jobID string) (*Result, error) {
	data, err := store.Get(ctx, RecordKey(jobID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, err
		}
		return nil, qerr.New(qerr.CodeStore, fmt.Errorf("loading record for %s: %w", jobID, err))
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, qerr.New(qerr.CodeStore, fmt.Errorf("parsing record for %s: %w", jobID, err))
	}
	return &result, nil
}
