package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annuityworks/kestrel/internal/domain"
)

const schemaRuns = `
CREATE TABLE IF NOT EXISTS alert_runs (
    id TEXT PRIMARY KEY,
    generated_at TIMESTAMP NOT NULL,
    algorithm_version TEXT NOT NULL,
    policies_analyzed INTEGER NOT NULL,
    portfolios_analyzed INTEGER NOT NULL,
    alerts_generated INTEGER NOT NULL,
    entities_skipped INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alert_runs_generated ON alert_runs(generated_at);
`

const schemaAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
    id TEXT NOT NULL,
    run_id TEXT NOT NULL,
    type TEXT NOT NULL,
    severity TEXT NOT NULL,
    policy_id TEXT,
    client_account_number TEXT NOT NULL,
    score REAL NOT NULL,
    confidence REAL NOT NULL,
    generated_at TIMESTAMP NOT NULL,
    payload TEXT NOT NULL,
    PRIMARY KEY (id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_alerts_run ON alerts(run_id);
CREATE INDEX IF NOT EXISTS idx_alerts_client ON alerts(client_account_number);
CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(run_id, severity);
`

// SQLSink persists each batch run and its alerts. The alert rows are
// deterministic; only the run row carries run-scoped metadata (run id and
// wall-clock insert time).
type SQLSink struct {
	db     *sql.DB
	driver string
}

// NewSQLSink opens the configured database and ensures the schema exists.
func NewSQLSink(cfg Config) (*SQLSink, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &SQLSink{db: db, driver: cfg.Driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLSink) migrate() error {
	for _, schema := range []string{schemaRuns, schemaAlerts} {
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// Write records the run row and every alert inside one transaction.
func (s *SQLSink) Write(ctx context.Context, out *domain.BatchOutput) error {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	runQuery := `
		INSERT INTO alert_runs (
			id, generated_at, algorithm_version,
			policies_analyzed, portfolios_analyzed, alerts_generated, entities_skipped,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, s.rebind(runQuery),
		runID, out.GeneratedAt, out.AlgorithmVersion,
		out.Stats.PoliciesAnalyzed, out.Stats.PortfoliosAnalyzed,
		out.Stats.AlertsGenerated, out.Stats.EntitiesSkipped,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	alertQuery := `
		INSERT INTO alerts (
			id, run_id, type, severity, policy_id, client_account_number,
			score, confidence, generated_at, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, s.rebind(alertQuery))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, group := range [][]domain.Alert{out.PolicyAlerts, out.AcquisitionAlerts} {
		for i := range group {
			a := &group[i]
			payload, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("encoding alert %s: %w", a.ID, err)
			}
			if _, err := stmt.ExecContext(ctx,
				a.ID, runID, string(a.Type), string(a.Severity),
				a.PolicyID, a.ClientAccountNumber,
				a.Score, a.Confidence, a.GeneratedAt, string(payload),
			); err != nil {
				return fmt.Errorf("inserting alert %s: %w", a.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Ping checks database connectivity.
func (s *SQLSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLSink) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (s *SQLSink) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
