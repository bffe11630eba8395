package session

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite connection holding sync runs, per-frame matches
// and synced poses.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and ensures the
// baseline schema exists. Schema evolutions beyond the baseline are
// applied with MigrateUp.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if _, err := db.Exec(baselineSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db}, nil
}

const baselineSchema = `
	CREATE TABLE IF NOT EXISTS sync_runs (
		run_id            TEXT PRIMARY KEY,
		session_path      TEXT NOT NULL,
		offset_seconds    REAL NOT NULL,
		gap_threshold     REAL NOT NULL,
		frame_count       INTEGER NOT NULL DEFAULT 0,
		gapped_count      INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS sync_matches (
		run_id            TEXT NOT NULL,
		frame_index       INTEGER NOT NULL,
		raw_ts            REAL NOT NULL,
		aligned_ts        REAL NOT NULL,
		prev_ts           REAL,
		next_ts           REAL,
		weight            REAL NOT NULL,
		gapped            INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, frame_index),
		FOREIGN KEY (run_id) REFERENCES sync_runs(run_id)
	);
	CREATE TABLE IF NOT EXISTS synced_poses (
		run_id            TEXT NOT NULL,
		frame_index       INTEGER NOT NULL,
		aligned_ts        REAL NOT NULL,
		hand_px           REAL, hand_py REAL, hand_pz REAL,
		hand_qx           REAL, hand_qy REAL, hand_qz REAL, hand_qw REAL,
		hand_gripper      REAL,
		cam_px            REAL, cam_py REAL, cam_pz REAL,
		cam_qx            REAL, cam_qy REAL, cam_qz REAL, cam_qw REAL,
		PRIMARY KEY (run_id, frame_index),
		FOREIGN KEY (run_id) REFERENCES sync_runs(run_id)
	);
`
