package fusion

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gnss-data/gnssfuse/internal/pos"
)

// FusedRecord is one epoch of the fused trajectory. The position is the
// inverse-variance weighted combination of all rovers; the reported
// standard deviations and covariances are the elementwise maximum across
// rovers, a conservative upper bound rather than the propagated fused
// variance.
// The per-axis weight sums (Σ 1/sd²) are carried so a caller can derive
// the propagated variance (1/Σ 1/sd²) if needed.
//
// FixQuality, SatelliteCount, Age and Ratio are not meaningful for a
// combined solution and are emitted as zero.
type FusedRecord struct {
	pos.PositionRecord
	WeightX float64 `json:"weight_x"`
	WeightY float64 `json:"weight_y"`
	WeightZ float64 `json:"weight_z"`
}

// Fuse combines the records of all rovers at epoch t into one fused
// record. Every rover must have a record at t (repair runs first); a
// missing record or a non-positive standard deviation stops the run.
func Fuse(t time.Time, series []*pos.RoverSeries) (FusedRecord, error) {
	n := len(series)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	zs := make([]float64, 0, n)
	wx := make([]float64, 0, n)
	wy := make([]float64, 0, n)
	wz := make([]float64, 0, n)

	fused := FusedRecord{PositionRecord: pos.PositionRecord{Time: t}}
	for _, s := range series {
		rec, ok := s.At(t)
		if !ok {
			return FusedRecord{}, &UnrepairedGapError{
				Epoch:  t,
				Rovers: []string{s.Name},
				Reason: "record still missing after repair",
			}
		}
		if rec.SDX <= 0 || rec.SDY <= 0 || rec.SDZ <= 0 {
			return FusedRecord{}, fmt.Errorf("epoch %s: rover %s reports non-positive standard deviation (sdx=%g sdy=%g sdz=%g)",
				t.Format(time.RFC3339), s.Name, rec.SDX, rec.SDY, rec.SDZ)
		}

		xs = append(xs, rec.X)
		ys = append(ys, rec.Y)
		zs = append(zs, rec.Z)
		wx = append(wx, 1/(rec.SDX*rec.SDX))
		wy = append(wy, 1/(rec.SDY*rec.SDY))
		wz = append(wz, 1/(rec.SDZ*rec.SDZ))

		fused.SDX = math.Max(fused.SDX, rec.SDX)
		fused.SDY = math.Max(fused.SDY, rec.SDY)
		fused.SDZ = math.Max(fused.SDZ, rec.SDZ)
		fused.SDXY = math.Max(fused.SDXY, rec.SDXY)
		fused.SDYZ = math.Max(fused.SDYZ, rec.SDYZ)
		fused.SDZX = math.Max(fused.SDZX, rec.SDZX)
	}

	fused.X = stat.Mean(xs, wx)
	fused.Y = stat.Mean(ys, wy)
	fused.Z = stat.Mean(zs, wz)
	fused.WeightX = floats.Sum(wx)
	fused.WeightY = floats.Sum(wy)
	fused.WeightZ = floats.Sum(wz)

	return fused, nil
}
