package cmd

import (
	"fmt"

	"github.com/quatton/pbsub/pkg/qconfig"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp(cmd)
			if err != nil {
				return err
			}
			env, err := app.Env()
			if err != nil {
				return err
			}
			qconfig.Print(func(format string, a ...interface{}) {
				fmt.Fprintf(cmd.OutOrStdout(), format, a...)
			}, app.Config, env)
			return nil
		},
	}
}
