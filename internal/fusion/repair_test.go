package fusion

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gnss-data/gnssfuse/internal/pos"
	"github.com/gnss-data/gnssfuse/internal/testutil"
)

func TestRepairInteriorInterpolation(t *testing.T) {
	// Rover has records at :01 and :03 but not :02.
	s := testutil.Series("C",
		testutil.Record(1, 100, 200, 300, 1),
		testutil.Record(3, 102, 204, 306, 2))

	invalid := map[string]bool{"C": true}
	err := Repair(testutil.Epoch(2), testutil.Epoch(1), invalid, []*pos.RoverSeries{s})
	testutil.AssertNoError(t, err)

	got, ok := s.At(testutil.Epoch(2))
	if !ok {
		t.Fatal("no record synthesized at epoch 2")
	}
	want := pos.PositionRecord{
		Time:           testutil.Epoch(2),
		X:              101,
		Y:              202,
		Z:              303,
		FixQuality:     1,  // min of the neighbours
		SatelliteCount: 10, // max of the neighbours
		SDX:            2, SDY: 2, SDZ: 2,
		SDXY: 0.2, SDYZ: 0.2, SDZX: 0.2,
		Age:   1.0,
		Ratio: 3.0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("synthesized record mismatch (-want +got):\n%s", diff)
	}
}

func TestRepairInteriorIsDeterministic(t *testing.T) {
	build := func() *pos.RoverSeries {
		return testutil.Series("A",
			testutil.Record(1, 10, 20, 30, 0.5),
			testutil.Record(3, 14, 24, 34, 0.7))
	}
	s1, s2 := build(), build()
	invalid := map[string]bool{"A": true}

	testutil.AssertNoError(t, Repair(testutil.Epoch(2), testutil.Epoch(1), invalid, []*pos.RoverSeries{s1}))
	testutil.AssertNoError(t, Repair(testutil.Epoch(2), testutil.Epoch(1), invalid, []*pos.RoverSeries{s2}))

	r1, _ := s1.At(testutil.Epoch(2))
	r2, _ := s2.At(testutil.Epoch(2))
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("interpolation not deterministic:\n%s", diff)
	}
}

func TestRepairInteriorReplacesFlaggedRecord(t *testing.T) {
	// The record at :02 exists but was flagged invalid; the replacement
	// must come from the neighbours, not the flagged record itself.
	s := testutil.Series("A",
		testutil.Record(1, 100, 0, 0, 1),
		testutil.Record(2, 9999, 0, 0, 1),
		testutil.Record(3, 102, 0, 0, 1))

	invalid := map[string]bool{"A": true}
	testutil.AssertNoError(t, Repair(testutil.Epoch(2), testutil.Epoch(1), invalid, []*pos.RoverSeries{s}))

	got, _ := s.At(testutil.Epoch(2))
	if got.X != 101 {
		t.Errorf("X = %v, want 101 (average of neighbours)", got.X)
	}
}

func TestRepairInteriorMissingNeighbour(t *testing.T) {
	// No record after epoch 2 at all.
	s := testutil.Series("A", testutil.Record(1, 100, 0, 0, 1))
	invalid := map[string]bool{"A": true}

	err := Repair(testutil.Epoch(2), testutil.Epoch(1), invalid, []*pos.RoverSeries{s})
	var uge *UnrepairedGapError
	if !errors.As(err, &uge) {
		t.Fatalf("expected UnrepairedGapError, got %v", err)
	}
	if len(uge.Rovers) != 1 || uge.Rovers[0] != "A" {
		t.Errorf("error rovers = %v, want [A]", uge.Rovers)
	}
}

func TestRepairBoundarySingleInvalid(t *testing.T) {
	// First epoch, A has no record; B and C are valid with x=100/102 and
	// sdx=1/2.
	a := pos.NewRoverSeries("A")
	a.Put(testutil.Record(1, 100, 0, 0, 1))

	b := testutil.Series("B", testutil.Record(0, 100, 0, 0, 1))
	c := testutil.Series("C", testutil.Record(0, 102, 0, 0, 2))
	series := []*pos.RoverSeries{a, b, c}

	invalid := map[string]bool{"A": true}
	testutil.AssertNoError(t, Repair(testutil.Epoch(0), testutil.Epoch(0), invalid, series))

	got, ok := a.At(testutil.Epoch(0))
	if !ok {
		t.Fatal("no record synthesized at the first epoch")
	}
	if got.X != 101 {
		t.Errorf("X = %v, want 101", got.X)
	}
	if got.SDX != 2 {
		t.Errorf("SDX = %v, want 2 (max across valid rovers)", got.SDX)
	}
	if got.FixQuality != 1 {
		t.Errorf("FixQuality = %v, want 1 (min across valid rovers)", got.FixQuality)
	}
}

func TestRepairBoundaryMultipleInvalid(t *testing.T) {
	a := testutil.Series("A", testutil.Record(1, 1, 0, 0, 1))
	b := testutil.Series("B", testutil.Record(1, 2, 0, 0, 1))
	c := testutil.Series("C", testutil.Record(0, 3, 0, 0, 1))

	invalid := map[string]bool{"A": true, "B": true}
	err := Repair(testutil.Epoch(0), testutil.Epoch(0), invalid, []*pos.RoverSeries{a, b, c})
	var uge *UnrepairedGapError
	if !errors.As(err, &uge) {
		t.Fatalf("expected UnrepairedGapError, got %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, uge.Rovers); diff != "" {
		t.Errorf("error rovers mismatch:\n%s", diff)
	}
}

func TestRepairBoundaryDegenerate(t *testing.T) {
	// A single rover flagged at the first epoch leaves nobody to average.
	solo := pos.NewRoverSeries("A")
	solo.Put(testutil.Record(1, 1, 0, 0, 1))

	invalid := map[string]bool{"A": true}
	err := Repair(testutil.Epoch(0), testutil.Epoch(0), invalid, []*pos.RoverSeries{solo})
	var dre *DegenerateRepairError
	if !errors.As(err, &dre) {
		t.Fatalf("expected DegenerateRepairError, got %v", err)
	}
	if dre.Rover != "A" {
		t.Errorf("error rover = %s, want A", dre.Rover)
	}
}

func TestRepairNoInvalidIsNoop(t *testing.T) {
	s := testutil.Series("A", testutil.Record(0, 1, 2, 3, 1))
	testutil.AssertNoError(t, Repair(testutil.Epoch(0), testutil.Epoch(0), nil, []*pos.RoverSeries{s}))
	if s.Len() != 1 {
		t.Errorf("series modified by no-op repair")
	}
}
