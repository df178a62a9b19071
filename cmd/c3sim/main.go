// Command c3sim runs a full credential-checking leakage experiment: it
// loads the configured corpora, simulates the bucketized lookup protocol
// against the query-source dataset, runs the inference attacks over the
// resulting query trace and prints the evaluation report.
//
// # Usage
//
//	go run ./cmd/c3sim --config experiments/config.yaml --wordlist guesses.txt
//
// With --http an inspection API stays up after the run, serving the report
// under /api/runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/cmd/common"
	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/experiment"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to the experiment YAML config")
		wordlistPath = flag.String("wordlist", "", "Password wordlist backing the guessing scorer (optional)")
		httpAddr     = flag.String("http", "", "Serve the run-inspection API on this address after the run")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
		pretty       = flag.Bool("pretty", true, "Human-readable log output")
	)
	flag.Parse()

	if *configPath == "" {
		fmt.Println("Error: --config is required")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := common.NewLogger(level, *pretty)

	cfg, err := experiment.LoadConfig(*configPath)
	if err != nil {
		log.Error("loading config", "err", err)
		os.Exit(1)
	}

	runner := &experiment.Runner{Config: cfg, Log: log}
	if *wordlistPath != "" {
		scorer, err := common.LoadWordlistScorer(*wordlistPath)
		if err != nil {
			log.Error("loading wordlist", "err", err)
			os.Exit(1)
		}
		runner.Scorer = scorer
	} else {
		log.Warn("no wordlist supplied, credential-guessing attack will be skipped")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx)
	if err != nil {
		log.Error("run failed", "err", err)
		os.Exit(1)
	}
	log.Info("run complete", "run_id", result.RunID, "results", len(result.Results))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Report); err != nil {
		log.Error("encoding report", "err", err)
		os.Exit(1)
	}

	if *httpAddr != "" {
		srv := experiment.NewServer(&experiment.ServerConfig{
			ListenAddr:               *httpAddr,
			Log:                      log,
			GracefulShutdownDuration: 10 * time.Second,
		})
		srv.AddRun(result)
		srv.RunInBackground()
		<-ctx.Done()
		srv.Shutdown()
	}
}
