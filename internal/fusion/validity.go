package fusion

import (
	"time"

	"github.com/gnss-data/gnssfuse/internal/pos"
)

// InvalidRovers returns the set of rover names deemed unreliable at epoch
// t, keyed by rover name.
//
// For every unordered pair (A, B): a rover with no record at t is invalid;
// if both have records, their 3-D separation is compared against the
// configured pair threshold, and a violation marks BOTH rovers invalid,
// since a pairwise violation does not say which side is at fault. A rover
// accumulates invalidity from any violating pair.
func InvalidRovers(t time.Time, series []*pos.RoverSeries, thresholds *PairThresholds) (map[string]bool, error) {
	invalid := make(map[string]bool)

	for i, a := range series {
		recA, okA := a.At(t)
		if !okA {
			invalid[a.Name] = true
			continue
		}
		for j := i + 1; j < len(series); j++ {
			b := series[j]
			recB, okB := b.At(t)
			if !okB {
				invalid[b.Name] = true
				continue
			}
			limit, ok := thresholds.Get(a.Name, b.Name)
			if !ok {
				return nil, &MissingThresholdError{Epoch: t, RoverA: a.Name, RoverB: b.Name}
			}
			if recA.Distance(recB) > limit {
				invalid[a.Name] = true
				invalid[b.Name] = true
			}
		}
	}
	return invalid, nil
}
