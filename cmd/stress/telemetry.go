// ════════════════════════════════════════════════════════════════════════════════════════════════
// Run Telemetry
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index — Stress Driver
// Component: SQLite-Backed Benchmark Recording
//
// Description:
//   Persists stats about a finished stress run — not tree contents, not shape data —
//   so comparing runs across machines doesn't require re-running everything. Grounded
//   on main.go's openDatabase/database/sql idiom.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// runStats summarizes one completed scenario run.
type runStats struct {
	Scenario       string
	Workers        uint32
	ShapeCount     int
	GCCycles       int
	SurvivingRoots int
	WallMillis     int64
}

func openTelemetryDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	scenario        TEXT NOT NULL,
	workers         INTEGER NOT NULL,
	shape_count     INTEGER NOT NULL,
	gc_cycles       INTEGER NOT NULL,
	surviving_roots INTEGER NOT NULL,
	wall_millis     INTEGER NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func recordRun(db *sql.DB, s runStats) error {
	_, err := db.Exec(
		`INSERT INTO runs (scenario, workers, shape_count, gc_cycles, surviving_roots, wall_millis) VALUES (?, ?, ?, ?, ?, ?)`,
		s.Scenario, s.Workers, s.ShapeCount, s.GCCycles, s.SurvivingRoots, s.WallMillis,
	)
	return err
}
