package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"graphsnap/internal/domain"
	"graphsnap/internal/repository"

	_ "modernc.org/sqlite"
)

// Archive implements repository.Archive using SQLite
type Archive struct {
	db *sql.DB
}

var _ repository.Archive = (*Archive)(nil)

// New creates a new SQLite archive
func New(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The driver gives every pooled connection its own :memory: database,
	// so the archive pins a single connection.
	db.SetMaxOpenConns(1)

	archive := &Archive{db: db}
	if err := archive.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return archive, nil
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		hostname TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		spec_updated INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_banks (
		run_id TEXT NOT NULL,
		bank TEXT NOT NULL,
		entity_count INTEGER NOT NULL,
		data JSON NOT NULL,
		PRIMARY KEY (run_id, bank),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := a.db.Exec(schema)
	return err
}

// RecordRun stores one completed run and every bank of the model it
// produced in a single transaction.
func (a *Archive) RecordRun(ctx context.Context, run domain.Run, m *domain.Model) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, hostname, started_at, finished_at, spec_updated)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Hostname, run.StartedAt, run.FinishedAt, boolToInt(run.SpecUpdated)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_banks (run_id, bank, entity_count, data) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare bank statement: %w", err)
	}
	defer stmt.Close()

	for _, slot := range modelSlots(m) {
		data, err := slot.marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", slot.kind.OutputName(), err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, slot.kind.OutputName(), slot.count(), data); err != nil {
			return fmt.Errorf("failed to insert %s: %w", slot.kind.OutputName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Runs lists every recorded run, most recent first.
func (a *Archive) Runs(ctx context.Context) ([]domain.Run, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// LoadRun reassembles the model recorded for one run. It returns nil for
// an unknown run id.
func (a *Archive) LoadRun(ctx context.Context, id string) (*domain.Model, error) {
	var exists int
	err := a.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT bank, data FROM run_banks WHERE run_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run banks: %w", err)
	}
	defer rows.Close()

	m := domain.NewModel()
	for rows.Next() {
		var (
			bank string
			data []byte
		)
		if err := rows.Scan(&bank, &data); err != nil {
			return nil, fmt.Errorf("failed to scan run bank: %w", err)
		}
		slot, ok := slotByOutputName(m, bank)
		if !ok {
			return nil, fmt.Errorf("unknown bank %q in archive", bank)
		}
		if err := slot.unmarshal(data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", bank, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run banks: %w", err)
	}
	return m, nil
}

// BankCounts reports the number of entities recorded per bank for one
// run.
func (a *Archive) BankCounts(ctx context.Context, runID string) (map[domain.BankKind]int, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT bank, entity_count FROM run_banks WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.BankKind]int)
	for rows.Next() {
		var (
			bank  string
			count int
		)
		if err := rows.Scan(&bank, &count); err != nil {
			return nil, fmt.Errorf("failed to scan bank count: %w", err)
		}
		if kind, ok := kindFromOutputName(bank); ok {
			counts[kind] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank counts: %w", err)
	}
	return counts, nil
}

// Close closes the database connection
func (a *Archive) Close() error {
	return a.db.Close()
}
