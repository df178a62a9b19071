// Package cmd provides CLI commands for the C3 leakage simulator.
//
// # Commands
//
// c3sim: Runs a full experiment from a YAML config: corpus loading, protocol
// simulation, inference attacks and evaluation. Prints the JSON report to
// stdout and can keep a run-inspection API running afterwards.
//
//	go run ./cmd/c3sim --config experiments/config.yaml
//	go run ./cmd/c3sim --config experiments/config.yaml --wordlist guesses.txt --http :8080
//
// # Configuration
//
// Experiments are described in YAML:
//
//	corpus_path: "data/breach.txt"
//	split_ratio: 0.9
//	scheme:
//	  algorithm: "sha256"
//	  basis: "password"
//	  prefix_bits: 20
//	scenario:
//	  asyn: 0.3
//	  clean: 0.2
//	  intercept: 0.1
//	  active: 0.1
//	num_queries: 1000
//	seed: 42
//	l_threshold: 2
//	cache_dir: ".cache"
//
// An optional postgres section persists per-attack reports:
//
//	postgres:
//	  host: "localhost"
//	  port: 5432
//	  user: "c3sim"
//	  password: "secret"
//	  database: "reports"
package cmd
