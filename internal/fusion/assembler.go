package fusion

import (
	"io"
	"time"

	"github.com/gnss-data/gnssfuse/internal/pos"
)

// Stats reports what happened during a run so callers can surface it.
type Stats struct {
	Epochs          int            `json:"epochs"`
	RepairedEpochs  int            `json:"repaired_epochs"`
	RepairsByRover  map[string]int `json:"repairs_by_rover"`
	TMin            time.Time      `json:"t_min"`
	TMax            time.Time      `json:"t_max"`
}

// Result is the outcome of a fusion run: the ordered fused series plus the
// per-rover series as they stand after gap repair.
type Result struct {
	Fused  []FusedRecord
	Rovers []*pos.RoverSeries
	Stats  Stats
}

// Run drives the per-epoch loop over the union envelope of all rover
// series: validity check, gap repair, weighted fusion, in that order, one
// second at a time from t_min to t_max inclusive.
//
// Epochs are processed strictly in increasing order and the loop is
// single-threaded. This is a correctness requirement, not a performance
// choice: interior repair reads the same rover's previously repaired
// records, so reordering epochs changes results.
//
// Any validity, repair or fusion error aborts the run at the offending
// epoch; there is no skip-and-continue mode, since the fused output must
// be a complete series over the window.
func Run(series []*pos.RoverSeries, thresholds *PairThresholds) (*Result, error) {
	tMin, tMax, err := Window(series)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Rovers: series,
		Stats: Stats{
			RepairsByRover: make(map[string]int),
			TMin:           tMin,
			TMax:           tMax,
		},
	}

	for t := tMin; !t.After(tMax); t = t.Add(time.Second) {
		invalid, err := InvalidRovers(t, series, thresholds)
		if err != nil {
			return nil, err
		}
		if len(invalid) > 0 {
			if err := Repair(t, tMin, invalid, series); err != nil {
				return nil, err
			}
			res.Stats.RepairedEpochs++
			for name := range invalid {
				res.Stats.RepairsByRover[name]++
			}
		}

		fused, err := Fuse(t, series)
		if err != nil {
			return nil, err
		}
		res.Fused = append(res.Fused, fused)
		res.Stats.Epochs++
	}

	return res, nil
}

// WritePos serializes the fused series as a .pos table with the same
// column layout as the input logs.
func (r *Result) WritePos(w io.Writer) error {
	recs := make([]pos.PositionRecord, len(r.Fused))
	for i, f := range r.Fused {
		recs[i] = f.PositionRecord
	}
	return pos.WriteRecords(w, recs)
}
