package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gnss-data/gnssfuse/internal/fusion"
	"github.com/gnss-data/gnssfuse/internal/pos"
)

// Run is the stored metadata for one fusion run.
type Run struct {
	ID        string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	TMin      time.Time `json:"t_min"`
	TMax      time.Time `json:"t_max"`
	Epochs    int       `json:"epochs"`
	Rovers    []string  `json:"rovers,omitempty"`
}

// SaveRun stores a completed fusion result: run metadata, the post-repair
// rover series and the fused series, all in one transaction. It returns
// the generated run ID.
func (db *DB) SaveRun(res *fusion.Result) (string, error) {
	runID := uuid.New().String()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, t_min, t_max, epochs) VALUES (?, ?, ?, ?)`,
		runID, res.Stats.TMin.UnixNano(), res.Stats.TMax.UnixNano(), res.Stats.Epochs,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	roverStmt, err := tx.Prepare(`INSERT INTO rover_records (
		run_id, rover, epoch, x, y, z, fix_quality, satellite_count,
		sdx, sdy, sdz, sdxy, sdyz, sdzx, age, ratio
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare rover insert: %w", err)
	}
	defer roverStmt.Close()

	for _, s := range res.Rovers {
		for _, rec := range s.Records() {
			_, err := roverStmt.Exec(
				runID, s.Name, rec.Time.UnixNano(),
				rec.X, rec.Y, rec.Z, rec.FixQuality, rec.SatelliteCount,
				rec.SDX, rec.SDY, rec.SDZ, rec.SDXY, rec.SDYZ, rec.SDZX,
				rec.Age, rec.Ratio,
			)
			if err != nil {
				return "", fmt.Errorf("failed to insert record for rover %s: %w", s.Name, err)
			}
		}
	}

	fusedStmt, err := tx.Prepare(`INSERT INTO fused_records (
		run_id, epoch, x, y, z, sdx, sdy, sdz, sdxy, sdyz, sdzx,
		weight_x, weight_y, weight_z
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare fused insert: %w", err)
	}
	defer fusedStmt.Close()

	for _, rec := range res.Fused {
		_, err := fusedStmt.Exec(
			runID, rec.Time.UnixNano(),
			rec.X, rec.Y, rec.Z,
			rec.SDX, rec.SDY, rec.SDZ, rec.SDXY, rec.SDYZ, rec.SDZX,
			rec.WeightX, rec.WeightY, rec.WeightZ,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert fused record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns all stored runs, newest first, each with its rover
// names.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(`SELECT run_id, created_at, t_min, t_max, epochs FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var tMin, tMax int64
		if err := rows.Scan(&r.ID, &r.CreatedAt, &tMin, &tMax, &r.Epochs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.TMin = time.Unix(0, tMin).UTC()
		r.TMax = time.Unix(0, tMax).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		names, err := db.RoverNames(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Rovers = names
	}
	return runs, nil
}

// GetRun returns one run's metadata, or sql.ErrNoRows if absent.
func (db *DB) GetRun(runID string) (*Run, error) {
	var r Run
	var tMin, tMax int64
	err := db.QueryRow(
		`SELECT run_id, created_at, t_min, t_max, epochs FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.ID, &r.CreatedAt, &tMin, &tMax, &r.Epochs)
	if err != nil {
		return nil, err
	}
	r.TMin = time.Unix(0, tMin).UTC()
	r.TMax = time.Unix(0, tMax).UTC()

	if r.Rovers, err = db.RoverNames(runID); err != nil {
		return nil, err
	}
	return &r, nil
}

// RoverNames returns the distinct rover names stored for a run.
func (db *DB) RoverNames(runID string) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT rover FROM rover_records WHERE run_id = ? ORDER BY rover`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rover names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RoverRecords returns one rover's stored series in epoch order.
func (db *DB) RoverRecords(runID, rover string) ([]pos.PositionRecord, error) {
	rows, err := db.Query(`SELECT epoch, x, y, z, fix_quality, satellite_count,
		sdx, sdy, sdz, sdxy, sdyz, sdzx, age, ratio
		FROM rover_records WHERE run_id = ? AND rover = ? ORDER BY epoch`, runID, rover)
	if err != nil {
		return nil, fmt.Errorf("failed to query rover records: %w", err)
	}
	defer rows.Close()

	var recs []pos.PositionRecord
	for rows.Next() {
		var rec pos.PositionRecord
		var epoch int64
		err := rows.Scan(&epoch, &rec.X, &rec.Y, &rec.Z, &rec.FixQuality, &rec.SatelliteCount,
			&rec.SDX, &rec.SDY, &rec.SDZ, &rec.SDXY, &rec.SDYZ, &rec.SDZX,
			&rec.Age, &rec.Ratio)
		if err != nil {
			return nil, err
		}
		rec.Time = time.Unix(0, epoch).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// FusedRecords returns a run's fused series in epoch order.
func (db *DB) FusedRecords(runID string) ([]fusion.FusedRecord, error) {
	rows, err := db.Query(`SELECT epoch, x, y, z, sdx, sdy, sdz, sdxy, sdyz, sdzx,
		weight_x, weight_y, weight_z
		FROM fused_records WHERE run_id = ? ORDER BY epoch`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fused records: %w", err)
	}
	defer rows.Close()

	var recs []fusion.FusedRecord
	for rows.Next() {
		var rec fusion.FusedRecord
		var epoch int64
		err := rows.Scan(&epoch, &rec.X, &rec.Y, &rec.Z,
			&rec.SDX, &rec.SDY, &rec.SDZ, &rec.SDXY, &rec.SDYZ, &rec.SDZX,
			&rec.WeightX, &rec.WeightY, &rec.WeightZ)
		if err != nil {
			return nil, err
		}
		rec.Time = time.Unix(0, epoch).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ErrNoRows re-exports sql.ErrNoRows so callers need not import
// database/sql just to classify a miss.
var ErrNoRows = sql.ErrNoRows
