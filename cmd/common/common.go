// Package common provides shared utilities for the simulator CLI commands:
// logger construction and loading of the external password-guess wordlist
// that backs the guessing strategy's scorer.
package common

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/attack"
)

// NewLogger builds a structured logger. Pretty output uses the tint handler
// for terminals; otherwise plain text goes to stderr.
func NewLogger(level slog.Level, pretty bool) *slog.Logger {
	if pretty {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// LoadWordlistScorer reads a password wordlist ordered by decreasing
// likelihood (the usual output format of external guessing models) and
// adapts it to the scorer contract: earlier entries score higher, unknown
// passwords score zero.
func LoadWordlistScorer(path string) (attack.Scorer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wordlist: %w", err)
	}
	defer f.Close()

	scores := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	rank := 0
	for scanner.Scan() {
		password := scanner.Text()
		if password == "" {
			continue
		}
		rank++
		if _, ok := scores[password]; !ok {
			scores[password] = 1.0 / float64(rank)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading wordlist: %w", err)
	}

	return attack.ScorerFunc(func(password string) float64 {
		return scores[password]
	}), nil
}
