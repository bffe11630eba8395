package session

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ooju-data/videosync/internal/motion"
)

// Run records one sync pass over a session: which data, which offset,
// and the aggregate outcome.
type Run struct {
	ID            string
	SessionPath   string
	OffsetSeconds float64
	GapThreshold  float64
	FrameCount    int
	GappedCount   int
	CreatedAt     time.Time
}

// NewRun creates a run record with a fresh id.
func NewRun(sessionPath string, offsetSeconds, gapThreshold float64) *Run {
	return &Run{
		ID:            uuid.NewString(),
		SessionPath:   sessionPath,
		OffsetSeconds: offsetSeconds,
		GapThreshold:  gapThreshold,
	}
}

// StoredMatch is the persisted form of a FrameMatch. Bracket timestamps
// are nullable: an empty-track alignment stores no bracket.
type StoredMatch struct {
	FrameIndex int
	RawTS      float64
	AlignedTS  float64
	PrevTS     sql.NullFloat64
	NextTS     sql.NullFloat64
	Weight     float64
	Gapped     bool
}

// FrameMatch rebuilds the in-memory form of a stored match. Bracket
// samples carry only timestamps; bracket poses are not persisted.
func (m *StoredMatch) FrameMatch() motion.FrameMatch {
	fm := motion.FrameMatch{
		RawTS:     m.RawTS,
		AlignedTS: m.AlignedTS,
		Weight:    m.Weight,
		Gapped:    m.Gapped,
	}
	if m.PrevTS.Valid {
		fm.Prev = &motion.TimedSample{Timestamp: m.PrevTS.Float64}
	}
	if m.NextTS.Valid {
		fm.Next = &motion.TimedSample{Timestamp: m.NextTS.Float64}
	}
	return fm
}

// SyncedPose is the per-frame output consumed by downstream export: the
// interpolated hand pose and, when both eye channels bracketed cleanly,
// the derived camera pose.
type SyncedPose struct {
	FrameIndex int
	AlignedTS  float64
	Hand       motion.Pose
	Camera     *motion.Pose
}

// InsertRun stores a run record.
func (db *DB) InsertRun(run *Run) error {
	_, err := db.Exec(`
		INSERT INTO sync_runs (run_id, session_path, offset_seconds, gap_threshold, frame_count, gapped_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionPath, run.OffsetSeconds, run.GapThreshold, run.FrameCount, run.GappedCount,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunCounts stores the final frame and gap counts for a run.
func (db *DB) UpdateRunCounts(runID string, frameCount, gappedCount int) error {
	_, err := db.Exec(`
		UPDATE sync_runs SET frame_count = ?, gapped_count = ? WHERE run_id = ?`,
		frameCount, gappedCount, runID,
	)
	if err != nil {
		return fmt.Errorf("update run counts: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, session_path, offset_seconds, gap_threshold, frame_count, gapped_count, created_at
		FROM sync_runs WHERE run_id = ?`, runID)

	var run Run
	err := row.Scan(&run.ID, &run.SessionPath, &run.OffsetSeconds, &run.GapThreshold,
		&run.FrameCount, &run.GappedCount, &run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, session_path, offset_seconds, gap_threshold, frame_count, gapped_count, created_at
		FROM sync_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SessionPath, &run.OffsetSeconds, &run.GapThreshold,
			&run.FrameCount, &run.GappedCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// InsertMatches stores the full match sequence for a run in one
// transaction.
func (db *DB) InsertMatches(runID string, matches []motion.FrameMatch) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin matches tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO sync_matches (run_id, frame_index, raw_ts, aligned_ts, prev_ts, next_ts, weight, gapped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare match insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range matches {
		var prevTS, nextTS interface{}
		if m.Prev != nil {
			prevTS = m.Prev.Timestamp
		}
		if m.Next != nil {
			nextTS = m.Next.Timestamp
		}
		if _, err := stmt.Exec(runID, i, m.RawTS, m.AlignedTS, prevTS, nextTS, m.Weight, m.Gapped); err != nil {
			return fmt.Errorf("insert match %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit matches: %w", err)
	}
	return nil
}

// GetMatches retrieves the stored matches for a run in frame order.
func (db *DB) GetMatches(runID string, limit int) ([]*StoredMatch, error) {
	if limit <= 0 {
		limit = 100000
	}
	rows, err := db.Query(`
		SELECT frame_index, raw_ts, aligned_ts, prev_ts, next_ts, weight, gapped
		FROM sync_matches WHERE run_id = ? ORDER BY frame_index LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("get matches: %w", err)
	}
	defer rows.Close()

	var out []*StoredMatch
	for rows.Next() {
		var m StoredMatch
		if err := rows.Scan(&m.FrameIndex, &m.RawTS, &m.AlignedTS, &m.PrevTS, &m.NextTS, &m.Weight, &m.Gapped); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// InsertSyncedPoses stores the interpolated per-frame poses for a run
// in one transaction.
func (db *DB) InsertSyncedPoses(runID string, poses []SyncedPose) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin poses tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO synced_poses (
			run_id, frame_index, aligned_ts,
			hand_px, hand_py, hand_pz, hand_qx, hand_qy, hand_qz, hand_qw, hand_gripper,
			cam_px, cam_py, cam_pz, cam_qx, cam_qy, cam_qz, cam_qw
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare pose insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range poses {
		args := []interface{}{
			runID, p.FrameIndex, p.AlignedTS,
			p.Hand.Position.X, p.Hand.Position.Y, p.Hand.Position.Z,
			p.Hand.Rotation.Imag, p.Hand.Rotation.Jmag, p.Hand.Rotation.Kmag, p.Hand.Rotation.Real,
			p.Hand.Gripper,
		}
		if p.Camera != nil {
			args = append(args,
				p.Camera.Position.X, p.Camera.Position.Y, p.Camera.Position.Z,
				p.Camera.Rotation.Imag, p.Camera.Rotation.Jmag, p.Camera.Rotation.Kmag, p.Camera.Rotation.Real,
			)
		} else {
			args = append(args, nil, nil, nil, nil, nil, nil, nil)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert pose %d: %w", p.FrameIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit poses: %w", err)
	}
	return nil
}

// GetSyncedPoses retrieves poses for a run within [startIdx, endIdx]
// inclusive; a negative endIdx means no upper bound.
func (db *DB) GetSyncedPoses(runID string, startIdx, endIdx int) ([]SyncedPose, error) {
	query := `
		SELECT frame_index, aligned_ts,
			hand_px, hand_py, hand_pz, hand_qx, hand_qy, hand_qz, hand_qw, hand_gripper,
			cam_px, cam_py, cam_pz, cam_qx, cam_qy, cam_qz, cam_qw
		FROM synced_poses WHERE run_id = ? AND frame_index >= ?`
	args := []interface{}{runID, startIdx}
	if endIdx >= 0 {
		query += ` AND frame_index <= ?`
		args = append(args, endIdx)
	}
	query += ` ORDER BY frame_index`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get synced poses: %w", err)
	}
	defer rows.Close()

	var out []SyncedPose
	for rows.Next() {
		var p SyncedPose
		var hq [4]float64
		var cam [7]sql.NullFloat64
		if err := rows.Scan(&p.FrameIndex, &p.AlignedTS,
			&p.Hand.Position.X, &p.Hand.Position.Y, &p.Hand.Position.Z,
			&hq[0], &hq[1], &hq[2], &hq[3], &p.Hand.Gripper,
			&cam[0], &cam[1], &cam[2], &cam[3], &cam[4], &cam[5], &cam[6]); err != nil {
			return nil, fmt.Errorf("scan synced pose: %w", err)
		}
		p.Hand.Rotation = quat.Number{Imag: hq[0], Jmag: hq[1], Kmag: hq[2], Real: hq[3]}
		if cam[0].Valid {
			p.Camera = &motion.Pose{
				Position: r3.Vec{X: cam[0].Float64, Y: cam[1].Float64, Z: cam[2].Float64},
				Rotation: quat.Number{Imag: cam[3].Float64, Jmag: cam[4].Float64, Kmag: cam[5].Float64, Real: cam[6].Float64},
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
