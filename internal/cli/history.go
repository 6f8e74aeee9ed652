package cli

import (
	"errors"
	"fmt"

	"github.com/Yuwon03/MLQ-Scheduler/internal/config"
	"github.com/Yuwon03/MLQ-Scheduler/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recorded runs, or show the jobs of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return errors.New("--db is required")
			}
			logger := newLogger(cmd, root, config.LogConfig{})
			st, err := history.NewSQLiteStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get run %s: %w", args[0], err)
				}
				fmt.Fprintf(out, "Run %s (%s, %d ticks)\n", run.ID, run.Source, run.Ticks)
				fmt.Fprintf(out, "%-6s  %-7s  %-7s  %-8s  %-5s  %-10s  %-10s  %-7s  %s\n",
					"JOB", "ARRIVAL", "SERVICE", "PRIORITY", "START", "COMPLETION", "TURNAROUND", "WAITING", "RESPONSE")
				for _, r := range run.Jobs {
					fmt.Fprintf(out, "%-6d  %-7d  %-7d  %-8d  %-5d  %-10d  %-10d  %-7d  %d\n",
						r.ID, r.ArrivalTime, r.ServiceTime, r.InitialPriority, r.StartTime,
						r.CompletionTime, r.Turnaround, r.Waiting, r.Response)
				}
				return nil
			}

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-20s  %-11s  %-10s  %-10s  %-10s  %s\n",
				"ID", "CREATED", "T0/T1/T2/W", "JOBS", "TURNAROUND", "WAITING", "RESPONSE")
			for _, r := range runs {
				c := r.Config
				quanta := fmt.Sprintf("%d/%d/%d/%d", c.Level0Quantum, c.Level1Quantum, c.Level2Quantum, c.StarvationThreshold)
				jobs := fmt.Sprintf("%d/%d", r.CompletedJobs, r.TotalJobs)
				fmt.Fprintf(out, "%-36s  %-20s  %-11s  %-10s  %-10.2f  %-10.2f  %.2f\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), quanta, jobs,
					r.AvgTurnaround, r.AvgWaiting, r.AvgResponse)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite history database")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
