package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/eval"
)

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// PostgresStore persists evaluation reports per experiment run.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attack_reports (
		run_id VARCHAR(64) NOT NULL,
		attack VARCHAR(64) NOT NULL,
		report JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (run_id, attack)
	);

	CREATE INDEX IF NOT EXISTS idx_reports_attack ON attack_reports(attack);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON attack_reports(created_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveReport persists every per-attack report of a run.
func (s *PostgresStore) SaveReport(runID string, report *eval.Report) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO attack_reports (run_id, attack, report, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (run_id, attack) DO UPDATE SET
		report = EXCLUDED.report,
		created_at = NOW()
	`

	for name, ar := range report.Attacks {
		data, err := json.Marshal(ar)
		if err != nil {
			return fmt.Errorf("encoding report for %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, query, runID, name, data); err != nil {
			return fmt.Errorf("saving report for %s: %w", name, err)
		}
	}
	return nil
}

// LoadReport retrieves the per-attack reports of a run.
func (s *PostgresStore) LoadReport(runID string) (*eval.Report, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT attack, report FROM attack_reports WHERE run_id = $1", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &eval.Report{Attacks: make(map[string]*eval.AttackReport)}
	for rows.Next() {
		var (
			attackName string
			data       []byte
		)
		if err := rows.Scan(&attackName, &data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var ar eval.AttackReport
		if err := json.Unmarshal(data, &ar); err != nil {
			return nil, fmt.Errorf("decoding report for %s: %w", attackName, err)
		}
		report.Attacks[attackName] = &ar
	}
	return report, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
