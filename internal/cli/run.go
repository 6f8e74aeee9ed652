package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yuwon03/MLQ-Scheduler/internal/config"
	"github.com/Yuwon03/MLQ-Scheduler/internal/history"
	"github.com/Yuwon03/MLQ-Scheduler/internal/jobfile"
	"github.com/Yuwon03/MLQ-Scheduler/internal/logging"
	"github.com/Yuwon03/MLQ-Scheduler/internal/proc"
	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/spf13/cobra"
)

func runSchedule(cmd *cobra.Command, opts *rootOptions, path string) error {
	file := config.Default()
	if opts.configPath != "" {
		var err error
		if file, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}

	logger := newLogger(cmd, opts, file.Log)

	schedCfg := file.Scheduler.Config
	if file.Scheduler.Prompt {
		if err := config.PromptQuanta(cmd.InOrStdin(), cmd.ErrOrStderr(), &schedCfg); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("tick") {
		schedCfg.TickInterval = opts.tick
	}

	parsed, err := jobfile.ParseFile(path)
	if err != nil {
		return err
	}
	for _, s := range parsed.Skipped {
		logger.Debug("skipped malformed record", "line", s.Line, "text", s.Text, "reason", s.Reason)
	}
	if len(parsed.Jobs) == 0 {
		return simulator.ErrNoJobs
	}

	var controller simulator.ProcessController = simulator.NewSimulatedController()
	command, args := file.Process.Command, file.Process.Args
	if opts.execPath != "" {
		command, args = opts.execPath, opts.execArgs
	}
	if command != "" {
		osCtrl := proc.NewOSController(command, args, cmd.ErrOrStderr(), logger)
		defer osCtrl.Close()
		controller = osCtrl
	}

	sim, err := simulator.NewSimulator(schedCfg, controller, logger)
	if err != nil {
		return err
	}
	if err := sim.SubmitAll(parsed.Jobs); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	for _, r := range sim.Results() {
		logger.Debug("job result", "job_id", r.ID, "arrival", r.ArrivalTime, "service", r.ServiceTime,
			"start", r.StartTime, "completion", r.CompletionTime,
			"turnaround", r.Turnaround, "waiting", r.Waiting, "response", r.Response)
	}
	writeReport(cmd.OutOrStdout(), m)

	dbPath := file.History.DBPath
	if opts.record != "" {
		dbPath = opts.record
	}
	if dbPath == "" {
		return nil
	}
	return recordRun(cmd, dbPath, history.NewRun(path, sim), logger)
}

func newLogger(cmd *cobra.Command, opts *rootOptions, lc config.LogConfig) *slog.Logger {
	level, format := lc.Level, lc.Format
	if cmd.Flags().Changed("log-level") || level == "" {
		level = opts.logLevel
	}
	if cmd.Flags().Changed("log-format") || format == "" {
		format = opts.logFormat
	}
	if opts.debug {
		level = "debug"
	}
	return logging.NewLoggerWithWriter(logging.ParseLevel(level), format, cmd.ErrOrStderr())
}

// writeReport prints the averages over completed jobs, or nothing if none completed.
func writeReport(w io.Writer, m *simulator.Metrics) {
	if !m.HasResults() {
		return
	}
	fmt.Fprintf(w, "Average turnaround time: %.2f\n", m.AvgTurnaround)
	fmt.Fprintf(w, "Average waiting time: %.2f\n", m.AvgWaiting)
	fmt.Fprintf(w, "Average response time: %.2f\n", m.AvgResponse)
}

func recordRun(cmd *cobra.Command, dbPath string, run *history.Run, logger *slog.Logger) error {
	st, err := history.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	if err := st.RecordRun(cmd.Context(), run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	logger.Info("run recorded", "run_id", run.ID, "db", dbPath)
	return nil
}
