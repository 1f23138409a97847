package fusion

import (
	"errors"
	"testing"

	"github.com/gnss-data/gnssfuse/internal/pos"
	"github.com/gnss-data/gnssfuse/internal/testutil"
)

func allPairs(limit float64, names ...string) *PairThresholds {
	th := NewPairThresholds()
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			th.Set(names[i], names[j], limit)
		}
	}
	return th
}

func TestInvalidRoversWithinThreshold(t *testing.T) {
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(0, 110, 0, 0, 1)),
	}

	invalid, err := InvalidRovers(testutil.Epoch(0), series, allPairs(20, "A", "B"))
	testutil.AssertNoError(t, err)
	if len(invalid) != 0 {
		t.Errorf("invalid set = %v, want empty", invalid)
	}
}

func TestInvalidRoversPairViolationMarksBoth(t *testing.T) {
	// A and B are 25 m apart with a 20 m limit; C sits between them,
	// within limit of both.
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(0, 125, 0, 0, 1)),
		testutil.Series("C", testutil.Record(0, 112, 0, 0, 1)),
	}

	invalid, err := InvalidRovers(testutil.Epoch(0), series, allPairs(20, "A", "B", "C"))
	testutil.AssertNoError(t, err)

	if !invalid["A"] || !invalid["B"] {
		t.Errorf("invalid set = %v, want A and B", invalid)
	}
	if invalid["C"] {
		t.Errorf("C should not be invalid, got %v", invalid)
	}
}

func TestInvalidRoversMissingRecord(t *testing.T) {
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(1, 100, 0, 0, 1)), // nothing at epoch 0
	}

	invalid, err := InvalidRovers(testutil.Epoch(0), series, allPairs(20, "A", "B"))
	testutil.AssertNoError(t, err)
	if !invalid["B"] || invalid["A"] {
		t.Errorf("invalid set = %v, want only B", invalid)
	}
}

func TestInvalidRoversMissingThreshold(t *testing.T) {
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(0, 101, 0, 0, 1)),
	}

	_, err := InvalidRovers(testutil.Epoch(0), series, NewPairThresholds())
	var mte *MissingThresholdError
	if !errors.As(err, &mte) {
		t.Fatalf("expected MissingThresholdError, got %v", err)
	}
	if mte.RoverA != "A" || mte.RoverB != "B" {
		t.Errorf("error pair = (%s, %s), want (A, B)", mte.RoverA, mte.RoverB)
	}
}

func TestPairThresholdsUnordered(t *testing.T) {
	th := NewPairThresholds()
	th.Set("B", "A", 15)
	if d, ok := th.Get("A", "B"); !ok || d != 15 {
		t.Errorf("Get(A, B) = %v/%v, want 15/true", d, ok)
	}
}
