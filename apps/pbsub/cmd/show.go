package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quatton/pbsub/pkg/kv"
	"github.com/quatton/pbsub/pkg/qart"
	"github.com/quatton/pbsub/pkg/qconfig"
	"github.com/quatton/pbsub/pkg/qerr"
	"github.com/quatton/pbsub/pkg/qsub"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var (
		artifacts bool
		script    bool
		output    bool
	)

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the recorded submission for a job id",
		Long: `Print the last submission recorded for a job id. Records are kept in the
configured kv backend; with kv.backend=memory nothing outlives a single
pbsub invocation, so use kv.backend=valkey to look up earlier submissions.

With archive.enabled, --artifacts lists the archived files of the job and
--script or --output print the archived job script or qsub output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp(cmd)
			if err != nil {
				return err
			}
			jobID := args[0]

			if artifacts || script || output {
				return showArchived(cmd, app, jobID, artifacts, script, output)
			}
			return showRecord(cmd, app, jobID)
		},
	}

	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "list archived artifacts")
	cmd.Flags().BoolVar(&script, "script", false, "print the archived job script")
	cmd.Flags().BoolVar(&output, "output", false, "print the archived qsub output")
	return cmd
}

func showRecord(cmd *cobra.Command, app *App, jobID string) error {
	ctx := cmd.Context()
	store, err := app.Store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := qsub.LoadRecord(ctx, store, jobID)
	if errors.Is(err, kv.ErrNotFound) {
		if app.Config.KV.Backend == qconfig.BackendMemory {
			return fmt.Errorf("no record for %s (kv.backend=memory does not persist records)", jobID)
		}
		return fmt.Errorf("no record for %s", jobID)
	}
	if err != nil {
		return err
	}
	printResult(cmd, result)
	return nil
}

func showArchived(cmd *cobra.Command, app *App, jobID string, list, script, output bool) error {
	ctx := cmd.Context()
	archive, err := app.Archive(ctx)
	if err != nil {
		return err
	}
	if archive == nil {
		return qerr.Newf(qerr.CodeConfig, "archive is disabled (set archive.enabled)")
	}
	out := cmd.OutOrStdout()

	if list {
		artifacts, err := qsub.ListArtifacts(ctx, archive, jobID)
		if err != nil {
			return err
		}
		if len(artifacts) == 0 {
			return fmt.Errorf("no artifacts archived for %s", jobID)
		}
		for _, a := range artifacts {
			fmt.Fprintf(out, "%s\t%d\t%s\n", a.Key, a.Size, a.LastModified.Format(time.RFC3339))
		}
	}

	var names []string
	if script {
		names = append(names, qsub.ScriptName(jobID))
	}
	if output {
		names = append(names, qsub.OutputArtifact)
	}
	for _, name := range names {
		if err := copyArtifact(ctx, out, archive, jobID, name); err != nil {
			return err
		}
	}
	return nil
}

func copyArtifact(ctx context.Context, w io.Writer, archive qart.Store, jobID, name string) error {
	rc, err := qsub.OpenArtifact(ctx, archive, jobID, name)
	if errors.Is(err, qart.ErrNotFound) {
		return fmt.Errorf("%s was not archived for %s", name, jobID)
	}
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}

func printResult(cmd *cobra.Command, r *qsub.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job ID:    %s\n", r.JobID)
	fmt.Fprintf(out, "Job name:  %s\n", r.JobName)
	fmt.Fprintf(out, "Status:    %s (exit %d)\n", r.Status, r.ExitCode)
	fmt.Fprintf(out, "Command:   %s\n", r.CommandLine())
	fmt.Fprintf(out, "Work dir:  %s\n", r.WorkDir)
	fmt.Fprintf(out, "Memory:    %d MB\n", r.MemoryMB)
	fmt.Fprintf(out, "Submitted: %s (%s)\n", r.SubmittedAt.Format(time.RFC3339), r.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Output:\n%s", r.Output)
}
