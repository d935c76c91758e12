package cmd

import (
	"fmt"

	"github.com/quatton/pbsub/pkg/qsub"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var jobID string

	cmd := &cobra.Command{
		Use:   "render [flags] [--] command [args...]",
		Short: "Print the job script without submitting it",
		Long: `Print the PBS script submit would write for the command. With --job-id the
qsub invocation is printed to stderr as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := readCommand(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			if jobID != "" {
				app, err := GetApp(cmd)
				if err != nil {
					return err
				}
				r := &qsub.Result{Binary: app.Config.Qsub, JobID: jobID, JobName: qsub.JobName(jobID)}
				fmt.Fprintf(cmd.ErrOrStderr(), "# %s\n", r.CommandLine())
			}

			return qsub.RenderScript(cmd.OutOrStdout(), command)
		},
	}

	cmd.Flags().StringVarP(&jobID, "job-id", "j", "", "show the qsub invocation for this job id")

	return cmd
}
