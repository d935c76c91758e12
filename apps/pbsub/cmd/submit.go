package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/pbsub/pkg/qsub"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		jobID  string
		prefix string
		memory int
	)

	cmd := &cobra.Command{
		Use:   "submit [flags] [--] command [args...]",
		Short: "Submit a command as a PBS job",
		Long: `Write the command into <job-id>.pbs, submit it with "qsub -N <name> <job-id>.pbs"
and remove the script afterwards. The job name is the job id, prefixed with "."
when it does not start with a letter. Use "-" as the only argument to read a
multi-line command from stdin.

qsub's combined output is printed unchanged. A rejected submission exits 1.

Example:
  pbsub submit --job-id align-42 -- bwa mem ref.fa reads.fq
  pbsub submit --job-id 7b -- - < job.sh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp(cmd)
			if err != nil {
				return err
			}

			command, err := readCommand(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			if jobID == "" {
				jobID = generateJobID(prefix)
			}
			if !cmd.Flags().Changed("memory") {
				memory = app.Config.Memory
			}

			ctx := cmd.Context()
			submitter, closeStores, err := app.Submitter(ctx)
			if err != nil {
				return err
			}
			defer closeStores()

			result, err := submitter.Submit(ctx, qsub.Request{
				Command:  command,
				JobID:    jobID,
				MemoryMB: memory,
			})
			if result != nil {
				cmd.OutOrStdout().Write(result.Output)
			}
			if err != nil {
				if !result.Succeeded() {
					return errors.Join(result.Err(), err)
				}
				return err
			}
			return result.Err()
		},
	}

	cmd.Flags().StringVarP(&jobID, "job-id", "j", "", "job id used for the script name and job name (default: generated)")
	cmd.Flags().StringVar(&prefix, "prefix", "job", "prefix for generated job ids")
	cmd.Flags().IntVarP(&memory, "memory", "m", 0, "memory hint in MB (recorded, not sent to qsub)")

	return cmd
}

// readCommand joins args into one command line, or reads stdin when the
// only argument is "-".
func readCommand(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading command from stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func generateJobID(prefix string) string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	uuidPart := uuid.New().String()[:8]
	return fmt.Sprintf("%s-%s-%s", prefix, timestamp, uuidPart)
}
