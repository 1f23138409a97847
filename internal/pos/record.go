// Package pos provides the position-record data model and readers/writers
// for the whitespace-separated .pos solution logs produced by the external
// positioning engine.
package pos

import (
	"math"
	"time"
)

// PositionRecord is a single epoch solution for one receiver: an ECEF
// position with the per-axis standard deviations, cross-axis covariance
// terms and solution quality metadata reported by the positioning engine.
type PositionRecord struct {
	Time           time.Time `json:"time"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	Z              float64   `json:"z"`
	FixQuality     int       `json:"fix_quality"`
	SatelliteCount int       `json:"satellite_count"`
	SDX            float64   `json:"sdx"`
	SDY            float64   `json:"sdy"`
	SDZ            float64   `json:"sdz"`
	SDXY           float64   `json:"sdxy"`
	SDYZ           float64   `json:"sdyz"`
	SDZX           float64   `json:"sdzx"`
	Age            float64   `json:"age"`
	Ratio          float64   `json:"ratio"`
}

// Distance returns the 3-D Euclidean separation in meters between the ECEF
// positions of two records.
func (r PositionRecord) Distance(o PositionRecord) float64 {
	dx := r.X - o.X
	dy := r.Y - o.Y
	dz := r.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
