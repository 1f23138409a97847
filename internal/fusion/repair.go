package fusion

import (
	"math"
	"sort"
	"time"

	"github.com/gnss-data/gnssfuse/internal/pos"
)

// Repair synthesizes a replacement record for every invalid rover at epoch
// t and writes it back into that rover's series. Repairs are permanent:
// later epochs' neighbour searches observe the synthesized records.
//
// Two mutually exclusive policies apply:
//
//   - at the very first epoch with exactly one invalid rover, the
//     replacement is built from the other, currently-valid rovers
//     (cross-rover averaging);
//   - at any later epoch each invalid rover is repaired independently from
//     its own nearest earlier and later records (neighbour interpolation).
//
// The first epoch with two or more invalid rovers has no repair rule and
// fails with an UnrepairedGapError rather than guessing a substitute.
func Repair(t, tMin time.Time, invalid map[string]bool, series []*pos.RoverSeries) error {
	if len(invalid) == 0 {
		return nil
	}

	if t.Equal(tMin) {
		if len(invalid) > 1 {
			return &UnrepairedGapError{
				Epoch:  t,
				Rovers: sortedNames(invalid),
				Reason: "multiple rovers invalid at the first epoch",
			}
		}
		return repairFromPeers(t, invalid, series)
	}
	for _, s := range series {
		if invalid[s.Name] {
			if err := repairFromNeighbours(t, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// repairFromPeers rebuilds the single invalid rover's record at the first
// epoch: position is the arithmetic mean of the valid rovers' positions,
// uncertainties are the elementwise maximum, fix quality the minimum.
func repairFromPeers(t time.Time, invalid map[string]bool, series []*pos.RoverSeries) error {
	var target *pos.RoverSeries
	for _, s := range series {
		if invalid[s.Name] {
			target = s
			break
		}
	}

	rec := pos.PositionRecord{Time: t}
	n := 0
	for _, s := range series {
		if invalid[s.Name] {
			continue
		}
		peer, ok := s.At(t)
		if !ok {
			// A rover outside the invalid set must have a record here.
			return &UnrepairedGapError{Epoch: t, Rovers: []string{s.Name}, Reason: "valid rover has no record"}
		}
		rec.X += peer.X
		rec.Y += peer.Y
		rec.Z += peer.Z
		if n == 0 {
			rec.FixQuality = peer.FixQuality
		} else {
			rec.FixQuality = min(rec.FixQuality, peer.FixQuality)
		}
		rec.SatelliteCount = max(rec.SatelliteCount, peer.SatelliteCount)
		rec.SDX = math.Max(rec.SDX, peer.SDX)
		rec.SDY = math.Max(rec.SDY, peer.SDY)
		rec.SDZ = math.Max(rec.SDZ, peer.SDZ)
		rec.SDXY = math.Max(rec.SDXY, peer.SDXY)
		rec.SDYZ = math.Max(rec.SDYZ, peer.SDYZ)
		rec.SDZX = math.Max(rec.SDZX, peer.SDZX)
		rec.Age = math.Max(rec.Age, peer.Age)
		rec.Ratio = math.Max(rec.Ratio, peer.Ratio)
		n++
	}
	if n == 0 {
		return &DegenerateRepairError{Epoch: t, Rover: target.Name}
	}
	rec.X /= float64(n)
	rec.Y /= float64(n)
	rec.Z /= float64(n)

	target.Put(rec)
	return nil
}

// repairFromNeighbours replaces a rover's record at t with the elementwise
// average of its nearest earlier and later records. The rover's own record
// at t, if present, is ignored: it was just flagged invalid.
func repairFromNeighbours(t time.Time, s *pos.RoverSeries) error {
	prev, ok := s.Before(t)
	if !ok {
		return &UnrepairedGapError{Epoch: t, Rovers: []string{s.Name}, Reason: "no earlier record to interpolate from"}
	}
	next, ok := s.After(t)
	if !ok {
		return &UnrepairedGapError{Epoch: t, Rovers: []string{s.Name}, Reason: "no later record to interpolate from"}
	}

	rec := pos.PositionRecord{
		Time:           t,
		X:              (prev.X + next.X) / 2,
		Y:              (prev.Y + next.Y) / 2,
		Z:              (prev.Z + next.Z) / 2,
		FixQuality:     min(prev.FixQuality, next.FixQuality),
		SatelliteCount: max(prev.SatelliteCount, next.SatelliteCount),
		SDX:            math.Max(prev.SDX, next.SDX),
		SDY:            math.Max(prev.SDY, next.SDY),
		SDZ:            math.Max(prev.SDZ, next.SDZ),
		SDXY:           math.Max(prev.SDXY, next.SDXY),
		SDYZ:           math.Max(prev.SDYZ, next.SDYZ),
		SDZX:           math.Max(prev.SDZX, next.SDZX),
		Age:            math.Max(prev.Age, next.Age),
		Ratio:          math.Max(prev.Ratio, next.Ratio),
	}
	s.Put(rec)
	return nil
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
