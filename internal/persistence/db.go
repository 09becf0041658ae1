// Package persistence provides SQLite-based storage of simulation
// results: one row per simulation set, one per run, plus the per-set
// heatmap snapshot.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/evacsim/evacsim/internal/grid"
	"github.com/evacsim/evacsim/internal/sim"
)

// DB wraps a SQLite connection for result persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS simulation_sets (
		id TEXT PRIMARY KEY,
		set_index INTEGER NOT NULL,
		status TEXT NOT NULL,
		exits_json TEXT NOT NULL,
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		set_id TEXT NOT NULL REFERENCES simulation_sets(id),
		run_index INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		timesteps INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS heatmaps (
		set_id TEXT PRIMARY KEY REFERENCES simulation_sets(id),
		grid_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_set ON runs(set_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRow is one persisted run.
type RunRow struct {
	SetID     string `db:"set_id"`
	RunIndex  int    `db:"run_index"`
	Seed      int64  `db:"seed"`
	Timesteps int    `db:"timesteps"`
}

// SaveResult stores a simulation set's outcome and returns the set's
// generated ID. Skipped sets are stored too, with their status and no
// runs, so a sweep's gaps stay visible.
func (db *DB) SaveResult(res sim.Result, spec sim.SetSpec, rows, cols int) (string, error) {
	exitsJSON, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("marshal exits: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.Exec(`INSERT INTO simulation_sets
		(id, set_index, status, exits_json, rows, cols, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, res.Set, res.Status.String(), string(exitsJSON), rows, cols,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}

	stmt, err := tx.Preparex(`INSERT INTO runs (set_id, run_index, seed, timesteps)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, steps := range res.Timesteps {
		if _, err := stmt.Exec(id, i, res.Seeds[i], steps); err != nil {
			return "", err
		}
	}

	if res.Heatmap != nil {
		gridJSON, err := json.Marshal(heatmapDoc{
			Rows:  res.Heatmap.Rows(),
			Cols:  res.Heatmap.Cols(),
			Cells: res.Heatmap.Cells(),
		})
		if err != nil {
			return "", fmt.Errorf("marshal heatmap: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO heatmaps (set_id, grid_json) VALUES (?, ?)`,
			id, string(gridJSON)); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Debug("result saved", "set_id", id, "runs", len(res.Timesteps), "status", res.Status.String())
	return id, nil
}

type heatmapDoc struct {
	Rows  int   `json:"rows"`
	Cols  int   `json:"cols"`
	Cells []int `json:"cells"`
}

// LoadRuns returns the persisted runs of a simulation set in run order.
func (db *DB) LoadRuns(setID string) ([]RunRow, error) {
	var rows []RunRow
	err := db.conn.Select(&rows,
		`SELECT set_id, run_index, seed, timesteps FROM runs
		 WHERE set_id = ? ORDER BY run_index`, setID)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	return rows, nil
}

// LoadHeatmap reconstructs a set's heatmap grid. Returns sql.ErrNoRows
// wrapped when the set stored none.
func (db *DB) LoadHeatmap(setID string) (*grid.Grid[int], error) {
	var gridJSON string
	err := db.conn.Get(&gridJSON,
		`SELECT grid_json FROM heatmaps WHERE set_id = ?`, setID)
	if err != nil {
		return nil, fmt.Errorf("load heatmap: %w", err)
	}

	var doc heatmapDoc
	if err := json.Unmarshal([]byte(gridJSON), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal heatmap: %w", err)
	}
	h := grid.New[int](doc.Rows, doc.Cols)
	copy(h.Cells(), doc.Cells)
	return h, nil
}
