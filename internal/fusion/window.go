package fusion

import (
	"fmt"
	"time"

	"github.com/gnss-data/gnssfuse/internal/pos"
)

// Window returns the union envelope of all rover series' spans: the
// earliest epoch of any series and the latest epoch of any series.
//
// The envelope (rather than the intersection) maximises coverage of the
// fused output. Near the boundaries some rovers may have no native record
// at all; those epochs show up as "unavailable" in the validity check and
// are synthesized by gap repair.
func Window(series []*pos.RoverSeries) (tMin, tMax time.Time, err error) {
	if len(series) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no rover series")
	}
	for _, s := range series {
		lo, ok := s.MinTime()
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("rover %s has an empty series", s.Name)
		}
		hi, _ := s.MaxTime()
		if tMin.IsZero() || lo.Before(tMin) {
			tMin = lo
		}
		if tMax.IsZero() || hi.After(tMax) {
			tMax = hi
		}
	}
	return tMin, tMax, nil
}
