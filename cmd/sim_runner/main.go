package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Yuwon03/MLQ-Scheduler/integration"
	"github.com/Yuwon03/MLQ-Scheduler/internal/logging"
	"github.com/Yuwon03/MLQ-Scheduler/simulator"
)

func generatedScenario(n int, seed int64, shape string, mean float64) (*integration.Scenario, error) {
	wc := simulator.DefaultWorkloadConfig()
	wc.Jobs = n
	wc.Seed = seed
	wc.ServiceMean = mean
	parsed, err := simulator.ParseServiceShape(shape)
	if err != nil {
		return nil, err
	}
	wc.ServiceShape = parsed
	jobs, err := simulator.GenerateWorkload(wc)
	if err != nil {
		return nil, err
	}
	return &integration.Scenario{
		Name:   fmt.Sprintf("generated-%d-seed-%d", n, seed),
		Config: simulator.DefaultConfig(),
		Jobs:   jobs,
	}, nil
}

func main() {
	// Parse command line flags
	scenarioFile := flag.String("scenario", "", "Path to YAML scenario file")
	outputFile := flag.String("output", "", "Path to output JSON file (optional, prints to stdout if not specified)")
	trace := flag.Bool("trace", false, "Include the scheduling event trace in the output")
	verbose := flag.Bool("verbose", false, "Log scheduling decisions to stderr")
	generate := flag.Int("generate", 0, "Run N generated jobs instead of a scenario file")
	seed := flag.Int64("seed", 1, "Seed for -generate")
	shape := flag.String("service-shape", "exponential", "Service time shape for -generate (uniform, exponential, geometric, fixed)")
	mean := flag.Float64("service-mean", 0, "Mean service ticks for -generate (0 = a quarter into the range)")
	flag.Parse()

	if (*scenarioFile == "") == (*generate == 0) {
		fmt.Fprintf(os.Stderr, "Usage: %s (-scenario <scenario.yaml> | -generate <n> [-seed <s>] [-service-shape <s>] [-service-mean <m>]) [-output <output.json>] [-trace] [-verbose]\n", os.Args[0])
		os.Exit(1)
	}

	var sc *integration.Scenario
	var err error
	if *scenarioFile != "" {
		sc, err = integration.LoadScenario(*scenarioFile)
	} else {
		sc, err = generatedScenario(*generate, *seed, *shape, *mean)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.NewLogger(logging.ParseLevel(level), "text")

	cfg := sc.Config
	cfg.TickInterval = 0
	model, err := integration.NewSchedulerModel(sc.Name, cfg, sc.Jobs, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating simulator: %v\n", err)
		os.Exit(1)
	}
	var events []simulator.Event
	if *trace {
		model.OnEvent(func(e simulator.Event) { events = append(events, e) })
	}

	fmt.Fprintf(os.Stderr, "Running scenario %q with %d jobs...\n", sc.Name, len(sc.Jobs))
	startTime := time.Now()
	metrics, err := model.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "Simulation completed in %v (%d ticks)\n", elapsed, model.Tick())

	results := map[string]interface{}{
		"scenario": sc.Name,
		"config":   model.SimConfig(),
		"ticks":    model.Tick(),
		"realTime": elapsed.Seconds(),
		"metrics":  metrics,
		"jobs":     model.Results(),
	}
	if *trace {
		results["events"] = events
	}

	exitCode := 0
	if sc.Expect != nil {
		out := &integration.Outcome{Ticks: model.Tick(), Metrics: metrics, Results: model.Results(), Events: events}
		if err := sc.Expect.Check(out); err != nil {
			fmt.Fprintf(os.Stderr, "Expectation failed: %v\n", err)
			results["expectationError"] = err.Error()
			exitCode = 2
		} else {
			fmt.Fprintf(os.Stderr, "Expectations met\n")
		}
	}

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", *outputFile)
	} else {
		fmt.Println(string(output))
	}
	os.Exit(exitCode)
}
