package pos

import (
	"sort"
	"time"
)

// RoverSeries is an ordered, timestamp-indexed position series for one
// named rover. Rovers are compared by name: two series with the same name
// refer to the same receiver.
//
// A series is built once by the parser and then mutated in place by gap
// repair, which only ever inserts or replaces the record at the epoch being
// repaired. Lookups at other epochs are unaffected by such writes.
type RoverSeries struct {
	Name string

	times   []int64 // sorted unix nanos
	records map[int64]PositionRecord
}

// NewRoverSeries returns an empty series for the named rover.
func NewRoverSeries(name string) *RoverSeries {
	return &RoverSeries{
		Name:    name,
		records: make(map[int64]PositionRecord),
	}
}

// Len returns the number of records in the series.
func (s *RoverSeries) Len() int { return len(s.times) }

// At returns the record at epoch t, if one exists.
func (s *RoverSeries) At(t time.Time) (PositionRecord, bool) {
	rec, ok := s.records[t.UnixNano()]
	return rec, ok
}

// Put inserts or replaces the record at rec.Time.
func (s *RoverSeries) Put(rec PositionRecord) {
	key := rec.Time.UnixNano()
	if _, exists := s.records[key]; !exists {
		i := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= key })
		s.times = append(s.times, 0)
		copy(s.times[i+1:], s.times[i:])
		s.times[i] = key
	}
	s.records[key] = rec
}

// MinTime returns the earliest epoch in the series. The boolean is false
// for an empty series.
func (s *RoverSeries) MinTime() (time.Time, bool) {
	if len(s.times) == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, s.times[0]).UTC(), true
}

// MaxTime returns the latest epoch in the series. The boolean is false for
// an empty series.
func (s *RoverSeries) MaxTime() (time.Time, bool) {
	if len(s.times) == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, s.times[len(s.times)-1]).UTC(), true
}

// Before returns the record at the nearest epoch strictly earlier than t.
func (s *RoverSeries) Before(t time.Time) (PositionRecord, bool) {
	key := t.UnixNano()
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= key })
	if i == 0 {
		return PositionRecord{}, false
	}
	return s.records[s.times[i-1]], true
}

// After returns the record at the nearest epoch strictly later than t.
func (s *RoverSeries) After(t time.Time) (PositionRecord, bool) {
	key := t.UnixNano()
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > key })
	if i == len(s.times) {
		return PositionRecord{}, false
	}
	return s.records[s.times[i]], true
}

// Records returns all records in increasing epoch order.
func (s *RoverSeries) Records() []PositionRecord {
	out := make([]PositionRecord, 0, len(s.times))
	for _, key := range s.times {
		out = append(out, s.records[key])
	}
	return out
}
