// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"
	"time"

	"github.com/gnss-data/gnssfuse/internal/pos"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Epoch returns a second-aligned UTC timestamp offset seconds after a
// fixed base epoch, for building compact fixtures.
func Epoch(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, offset, 0, time.UTC)
}

// Record builds a position record at the given epoch offset with uniform
// standard deviation on all axes.
func Record(offset int, x, y, z, sd float64) pos.PositionRecord {
	return pos.PositionRecord{
		Time:           Epoch(offset),
		X:              x,
		Y:              y,
		Z:              z,
		FixQuality:     1,
		SatelliteCount: 10,
		SDX:            sd,
		SDY:            sd,
		SDZ:            sd,
		SDXY:           sd / 10,
		SDYZ:           sd / 10,
		SDZX:           sd / 10,
		Age:            1.0,
		Ratio:          3.0,
	}
}

// Series builds a rover series from records.
func Series(name string, recs ...pos.PositionRecord) *pos.RoverSeries {
	s := pos.NewRoverSeries(name)
	for _, rec := range recs {
		s.Put(rec)
	}
	return s
}
