// Package qsub writes PBS/Torque job scripts and submits them with qsub.
package qsub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/quatton/pbsub/pkg/kv"
	"github.com/quatton/pbsub/pkg/qart"
	"github.com/quatton/pbsub/pkg/qerr"
	"github.com/quatton/pbsub/pkg/qlog"
)

const (
	// DefaultBinary is the submission executable looked up on PATH.
	DefaultBinary = "qsub"
	// DefaultMemoryMB is used when a Request leaves MemoryMB at zero.
	DefaultMemoryMB = 512

	// waitDelay bounds how long output pipes are drained after qsub is
	// killed by a cancelled context.
	waitDelay = 2 * time.Second
)

// Request describes one job to submit.
type Request struct {
	Command string // shell command run on the compute node
	JobID   string // script base name and scheduler job name
	// MemoryMB is recorded on the Result but not passed to qsub.
	MemoryMB int
}

// Submitter renders job scripts into a working directory and submits them.
// A Submitter is safe for concurrent use as long as job IDs are unique, or a
// guard is configured.
type Submitter struct {
	workDir string
	binary  string
	log     *qlog.Logger

	guard     kv.Store
	guardTTL  time.Duration
	records   kv.Store
	recordTTL time.Duration
	archive   qart.Store

	now func() time.Time
}

// Option configures a Submitter
type Option func(*Submitter)

// WithWorkDir sets the directory the script is written to and qsub runs in.
func WithWorkDir(dir string) Option {
	return func(s *Submitter) {
		s.workDir = dir
	}
}

// WithBinary overrides the submission executable (default "qsub").
func WithBinary(binary string) Option {
	return func(s *Submitter) {
		s.binary = binary
	}
}

// WithLogger sets the logger used for the echoed command and diagnostics.
func WithLogger(log *qlog.Logger) Option {
	return func(s *Submitter) {
		s.log = log
	}
}

// WithGuard serialises submissions that share a job ID through store.
// A held guard makes Submit fail with qerr.CodeInUse.
func WithGuard(store kv.Store, ttl time.Duration) Option {
	return func(s *Submitter) {
		s.guard = store
		s.guardTTL = ttl
	}
}

// WithRecorder stores every Result in store; see LoadRecord.
func WithRecorder(store kv.Store, ttl time.Duration) Option {
	return func(s *Submitter) {
		s.records = store
		s.recordTTL = ttl
	}
}

// WithArchive uploads the rendered script and qsub output to store.
func WithArchive(store qart.Store) Option {
	return func(s *Submitter) {
		s.archive = store
	}
}

// NewSubmitter creates a Submitter. Without WithWorkDir the process working
// directory is used.
func NewSubmitter(opts ...Option) *Submitter {
	cwd, _ := os.Getwd()
	s := &Submitter{
		workDir: cwd,
		binary:  DefaultBinary,
		log:     qlog.NewDefault(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WorkDir returns the directory scripts are written to.
func (s *Submitter) WorkDir() string {
	return s.workDir
}

// Submit renders the job script, runs qsub on it and removes the script.
//
// A non-zero exit from qsub is not an error: it is reported as a Result with
// StatusFailed carrying the combined output. The returned error is reserved
// for faults around the submission (writing the script, starting qsub,
// removing the script, the job-id guard). When removing the script fails the
// Result is returned alongside the error.
func (s *Submitter) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := validateJobID(req.JobID); err != nil {
		return nil, err
	}
	if req.MemoryMB <= 0 {
		req.MemoryMB = DefaultMemoryMB
	}

	release, err := s.acquire(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	defer release()

	log := s.log.With("job_id", req.JobID)

	var script bytes.Buffer
	if err := RenderScript(&script, req.Command); err != nil {
		return nil, qerr.New(qerr.CodeScriptWrite, fmt.Errorf("rendering script: %w", err))
	}

	scriptPath := filepath.Join(s.workDir, ScriptName(req.JobID))
	if err := writeScript(scriptPath, script.Bytes()); err != nil {
		return nil, err
	}

	result := &Result{
		JobID:       req.JobID,
		JobName:     JobName(req.JobID),
		Binary:      s.binary,
		ScriptPath:  scriptPath,
		WorkDir:     s.workDir,
		MemoryMB:    req.MemoryMB,
		SubmittedAt: s.now(),
	}
	log.Debug("memory hint not forwarded to scheduler", "memory_mb", req.MemoryMB)

	runErr := s.run(ctx, result)

	log.Info(result.CommandLine())

	if runErr == nil {
		s.archiveArtifacts(ctx, log, result, script.Bytes())
	}

	if err := os.Remove(scriptPath); err != nil {
		cleanupErr := qerr.New(qerr.CodeCleanup, fmt.Errorf("removing %s: %w", scriptPath, err))
		if runErr != nil {
			return nil, errors.Join(runErr, cleanupErr)
		}
		s.record(ctx, log, result)
		return result, cleanupErr
	}
	log.Debug("removed script", "path", scriptPath)

	if runErr != nil {
		return nil, runErr
	}

	s.record(ctx, log, result)
	return result, nil
}

// run executes the submission binary and fills in the outcome on result.
func (s *Submitter) run(ctx context.Context, result *Result) error {
	cmd := exec.CommandContext(ctx, s.binary, result.Args()...)
	cmd.Dir = s.workDir
	cmd.WaitDelay = waitDelay

	start := time.Now()
	out, err := cmd.CombinedOutput()
	result.Duration = time.Since(start)
	result.Output = out

	if err == nil {
		result.Status = StatusSubmitted
		result.ExitCode = 0
		return nil
	}

	if ctx.Err() != nil {
		return qerr.New(qerr.CodeExec, fmt.Errorf("running %s: %w", s.binary, ctx.Err()))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.Status = StatusFailed
		result.ExitCode = exitErr.ExitCode()
		return nil
	}

	// A binary that cannot be started is reported the way a shell would:
	// 127 when it is missing, 126 when it is not executable.
	if code, ok := startFailureCode(err); ok {
		result.Status = StatusFailed
		result.ExitCode = code
		result.Output = append(result.Output, []byte(err.Error()+"\n")...)
		return nil
	}

	return qerr.New(qerr.CodeExec, fmt.Errorf("running %s: %w", s.binary, err))
}

const (
	exitNotFound      = 127
	exitNotExecutable = 126
)

func startFailureCode(err error) (int, bool) {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return exitNotFound, true
	case errors.Is(err, fs.ErrPermission):
		return exitNotExecutable, true
	}
	return 0, false
}

func writeScript(path string, script []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return qerr.New(qerr.CodeScriptWrite, fmt.Errorf("creating script: %w", err))
	}
	if _, err := f.Write(script); err != nil {
		f.Close()
		os.Remove(path)
		return qerr.New(qerr.CodeScriptWrite, fmt.Errorf("writing %s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return qerr.New(qerr.CodeScriptWrite, fmt.Errorf("closing %s: %w", path, err))
	}
	return nil
}

// validateJobID rejects IDs that cannot name a file inside the working
// directory.
func validateJobID(jobID string) error {
	switch {
	case jobID == "":
		return qerr.Newf(qerr.CodeInvalidRequest, "job id is empty")
	case strings.ContainsAny(jobID, "/\x00") || strings.ContainsRune(jobID, filepath.Separator):
		return qerr.Newf(qerr.CodeInvalidRequest, "job id %q contains a path separator", jobID)
	}
	return nil
}

// Submit submits command as jobID from the process working directory using
// the default submitter.
func Submit(ctx context.Context, command, jobID string, memoryMB int) (*Result, error) {
	return NewSubmitter().Submit(ctx, Request{
		Command:  command,
		JobID:    jobID,
		MemoryMB: memoryMB,
	})
}
