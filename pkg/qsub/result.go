package qsub

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Status is the outcome of a submission, decided solely by the exit status
// of the submission executable.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
)

// Result is the outcome of one Submit call. Output is the raw combined
// stdout and stderr of the submission executable in both variants.
type Result struct {
	Status      Status        `json:"status"`
	JobID       string        `json:"job_id"`
	JobName     string        `json:"job_name"`
	Binary      string        `json:"binary"`
	ScriptPath  string        `json:"script_path"`
	WorkDir     string        `json:"work_dir"`
	MemoryMB    int           `json:"memory_mb"`
	Output      []byte        `json:"output"`
	ExitCode    int           `json:"exit_code"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Duration    time.Duration `json:"duration"`
}

// Succeeded reports whether the submission executable exited 0.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSubmitted
}

// Err returns a *SubmitError for the failed variant and nil otherwise.
func (r *Result) Err() error {
	if r == nil || r.Status != StatusFailed {
		return nil
	}
	return &SubmitError{
		JobID:    r.JobID,
		ExitCode: r.ExitCode,
		Output:   r.Output,
	}
}

// Args returns the argument vector passed to the submission executable.
func (r *Result) Args() []string {
	return []string{"-N", r.JobName, ScriptName(r.JobID)}
}

// CommandLine renders the invocation for display. It is not shell-quoted.
func (r *Result) CommandLine() string {
	return r.Binary + " " + strings.Join(r.Args(), " ")
}

// SubmitError describes a submission the scheduler's executable rejected.
type SubmitError struct {
	JobID    string
	ExitCode int
	Output   []byte
}

func (e *SubmitError) Error() string {
	out := string(bytes.TrimSpace(e.Output))
	if out == "" {
		return fmt.Sprintf("submitting %s: exit status %d", e.JobID, e.ExitCode)
	}
	return fmt.Sprintf("submitting %s: exit status %d: %s", e.JobID, e.ExitCode, out)
}
