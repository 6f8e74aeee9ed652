// Package cli implements the mlq command line.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	debug      bool
	logLevel   string
	logFormat  string
	tick       time.Duration
	execPath   string
	execArgs   []string
	record     string
}

// NewRootCmd creates the root cobra command for the mlq CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "mlq <JOB_DISPATCH_FILE>",
		Short: "Multilevel feedback queue scheduler",
		Long: "mlq schedules the jobs listed in a dispatch file (one \"arrival, service, priority\"\n" +
			"record per line) on a three-level feedback queue and reports average turnaround,\n" +
			"waiting and response times.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: %s <JOB_DISPATCH_FILE>", cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd, opts, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	root.Flags().StringVar(&opts.configPath, "config", "", "YAML run configuration")
	root.Flags().DurationVar(&opts.tick, "tick", time.Second, "Wall-clock time per tick (0 runs unpaced)")
	root.Flags().StringVar(&opts.execPath, "exec", "", "Run each job as this command, driven by job control signals")
	root.Flags().StringArrayVar(&opts.execArgs, "exec-arg", nil, "Argument for the --exec command (repeatable)")
	root.Flags().StringVar(&opts.record, "record", "", "Record the run in this SQLite history database")

	root.AddCommand(newHistoryCmd(opts))

	return root
}
