package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Yuwon03/MLQ-Scheduler/integration"
	"github.com/Yuwon03/MLQ-Scheduler/internal/config"
	"github.com/Yuwon03/MLQ-Scheduler/internal/jobfile"
	"github.com/Yuwon03/MLQ-Scheduler/internal/logging"
	"github.com/Yuwon03/MLQ-Scheduler/simulator"
)

// loadWorkload builds the served workload from a scenario file, or from a job
// dispatch file plus an optional run configuration.
func loadWorkload(scenarioPath, jobsPath, configPath string) (*integration.Scenario, error) {
	switch {
	case scenarioPath != "" && jobsPath != "":
		return nil, errors.New("-scenario and -jobs are mutually exclusive")
	case scenarioPath != "":
		return integration.LoadScenario(scenarioPath)
	case jobsPath == "":
		return nil, errors.New("one of -scenario or -jobs is required")
	}

	file := config.Default()
	if configPath != "" {
		var err error
		if file, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	// There is nobody to prompt; the file values (or defaults) are used as is.
	if err := file.Scheduler.Validate(); err != nil {
		return nil, err
	}
	parsed, err := jobfile.ParseFile(jobsPath)
	if err != nil {
		return nil, err
	}
	if len(parsed.Jobs) == 0 {
		return nil, simulator.ErrNoJobs
	}
	return &integration.Scenario{
		Name:   filepath.Base(jobsPath),
		Config: file.Scheduler.Config,
		Jobs:   parsed.Jobs,
	}, nil
}

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	scenarioPath := flag.String("scenario", "", "YAML scenario to serve")
	jobsPath := flag.String("jobs", "", "Job dispatch file to serve")
	configPath := flag.String("config", "", "YAML run configuration (with -jobs)")
	tick := flag.Duration("tick", 500*time.Millisecond, "Wall-clock time per tick while running")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "Log format (text, json)")
	flag.Parse()

	logger := logging.NewLogger(logging.ParseLevel(*logLevel), *logFormat)

	sc, err := loadWorkload(*scenarioPath, *jobsPath, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
	if *tick <= 0 {
		fmt.Fprintln(os.Stderr, "ERROR: -tick must be positive")
		os.Exit(1)
	}

	srv := newServer(sc, *tick, logger)
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "addr", *addr, "workload", sc.Name, "jobs", len(sc.Jobs))
	logger.Info("endpoints", "websocket", "/ws", "metrics", "/metrics")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
