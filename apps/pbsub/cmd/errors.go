package cmd

import (
	"errors"
	"fmt"

	"github.com/quatton/pbsub/pkg/qerr"
	"github.com/quatton/pbsub/pkg/qsub"
)

// describeError adds user-facing guidance for known error codes.
func describeError(err error) string {
	var submitErr *qsub.SubmitError
	switch {
	case errors.As(err, &submitErr):
		msg := fmt.Sprintf("❌ qsub rejected %s (exit status %d)", submitErr.JobID, submitErr.ExitCode)
		if submitErr.ExitCode == 127 {
			msg += ": is qsub installed and on PATH? (set --qsub or PBSUB_QSUB)"
		}
		if cleanupErr := codedError(err, qerr.CodeCleanup); cleanupErr != nil {
			msg += fmt.Sprintf("\n⚠️  the script could not be removed: %v", cleanupErr)
		}
		return msg
	case qerr.IsCode(err, qerr.CodeInUse):
		return fmt.Sprintf("❌ %v: another pbsub is submitting this job id; retry later or pick another --job-id", err)
	case qerr.IsCode(err, qerr.CodeExec):
		return fmt.Sprintf("❌ %v", err)
	case qerr.IsCode(err, qerr.CodeCleanup):
		return fmt.Sprintf("⚠️  job was submitted but the script could not be removed: %v", err)
	default:
		return fmt.Sprintf("❌ %v", err)
	}
}

// codedError returns the first *qerr.Error in err's tree with code.
func codedError(err error, code qerr.Code) error {
	switch e := err.(type) {
	case *qerr.Error:
		if e.Code == code {
			return e
		}
		return codedError(e.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if found := codedError(inner, code); found != nil {
				return found
			}
		}
	case interface{ Unwrap() error }:
		return codedError(e.Unwrap(), code)
	}
	return nil
}

// exitCode maps errors to process exit codes. A rejected submission and
// other faults exit 1; configuration problems exit 2.
func exitCode(err error) int {
	if qerr.IsCode(err, qerr.CodeConfig) || qerr.IsCode(err, qerr.CodeInvalidRequest) {
		return 2
	}
	return 1
}
