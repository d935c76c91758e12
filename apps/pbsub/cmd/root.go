package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/quatton/pbsub/pkg/qconfig"
	"github.com/quatton/pbsub/pkg/qlog"
	"github.com/spf13/cobra"
)

type contextKey string

const appContextKey contextKey = "pbsubapp"

// NewRootCmd builds the pbsub command tree.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
		quiet   bool
	)

	rootCmd := &cobra.Command{
		Use:   "pbsub",
		Short: "Write PBS job scripts and submit them with qsub",
		Long: `pbsub wraps a shell command in a PBS/Torque job script, submits it with
qsub and removes the script again. The scheduler's response is printed as is.

Configuration is read from pbsub.yaml (or --config), merged with the untracked
.pbsub/config.yaml, and overridden by PBSUB_* environment variables and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qconfig.LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			v := cfg.Viper()
			for key, flag := range map[string]string{
				qconfig.WorkDirKey: "workdir",
				qconfig.QsubKey:    "qsub",
			} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			if err := cfg.Reload(); err != nil {
				return err
			}

			level, err := qlog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			switch {
			case verbose:
				level = slog.LevelDebug
			case quiet:
				level = slog.LevelWarn
			}

			app := &App{
				Config: cfg,
				Log:    qlog.NewLogger(level, cmd.OutOrStdout()),
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appContextKey, app))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML). Searches: pbsub.yaml, pbsub.yml, .pbsub.yaml, then merges .pbsub/config.yaml")
	rootCmd.PersistentFlags().String("workdir", "", "directory the job script is written to and qsub runs in (default: current directory)")
	rootCmd.PersistentFlags().String("qsub", "", "submission executable (default: qsub)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(
		newSubmitCmd(),
		newRenderCmd(),
		newShowCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// GetApp retrieves the App from the command context
func GetApp(cmd *cobra.Command) (*App, error) {
	app, ok := cmd.Context().Value(appContextKey).(*App)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return app, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(exitCode(err))
	}
}
