// Package db persists fusion runs in sqlite: the parsed (and repaired)
// per-rover series, the fused output series and the run metadata needed to
// locate them again.
package db

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the sqlite database at path and
// ensures the base schema exists. Epochs are stored as unix nanoseconds so
// sub-second timestamps survive the round trip.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			t_min             BIGINT,
			t_max             BIGINT,
			epochs            BIGINT
		);
		CREATE TABLE IF NOT EXISTS rover_records (
			run_id            TEXT,
			rover             TEXT,
			epoch             BIGINT,
			x                 DOUBLE,
			y                 DOUBLE,
			z                 DOUBLE,
			fix_quality       BIGINT,
			satellite_count   BIGINT,
			sdx               DOUBLE,
			sdy               DOUBLE,
			sdz               DOUBLE,
			sdxy              DOUBLE,
			sdyz              DOUBLE,
			sdzx              DOUBLE,
			age               DOUBLE,
			ratio             DOUBLE,
			PRIMARY KEY(run_id, rover, epoch),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS fused_records (
			run_id            TEXT,
			epoch             BIGINT,
			x                 DOUBLE,
			y                 DOUBLE,
			z                 DOUBLE,
			sdx               DOUBLE,
			sdy               DOUBLE,
			sdz               DOUBLE,
			sdxy              DOUBLE,
			sdyz              DOUBLE,
			sdzx              DOUBLE,
			weight_x          DOUBLE,
			weight_y          DOUBLE,
			weight_z          DOUBLE,
			PRIMARY KEY(run_id, epoch),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}
