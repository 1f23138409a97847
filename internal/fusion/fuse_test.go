package fusion

import (
	"errors"
	"math"
	"testing"

	"github.com/gnss-data/gnssfuse/internal/pos"
	"github.com/gnss-data/gnssfuse/internal/testutil"
)

func TestFuseEqualUncertaintyIsArithmeticMean(t *testing.T) {
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 10, 1, 0.5)),
		testutil.Series("B", testutil.Record(0, 104, 14, 5, 0.5)),
		testutil.Series("C", testutil.Record(0, 108, 18, 9, 0.5)),
	}

	fused, err := Fuse(testutil.Epoch(0), series)
	testutil.AssertNoError(t, err)

	if math.Abs(fused.X-104) > 1e-9 {
		t.Errorf("X = %v, want 104", fused.X)
	}
	if math.Abs(fused.Y-14) > 1e-9 {
		t.Errorf("Y = %v, want 14", fused.Y)
	}
	if math.Abs(fused.Z-5) > 1e-9 {
		t.Errorf("Z = %v, want 5", fused.Z)
	}
}

func TestFuseWeightsFavourTighterUncertainty(t *testing.T) {
	base := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(0, 200, 0, 0, 1)),
	}
	equal, err := Fuse(testutil.Epoch(0), base)
	testutil.AssertNoError(t, err)

	// Shrink A's uncertainty without moving it; the fused X must move
	// strictly toward A.
	tighter := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 0.5)),
		testutil.Series("B", testutil.Record(0, 200, 0, 0, 1)),
	}
	skewed, err := Fuse(testutil.Epoch(0), tighter)
	testutil.AssertNoError(t, err)

	if !(skewed.X < equal.X) {
		t.Errorf("fused X = %v, want strictly less than %v", skewed.X, equal.X)
	}
	if skewed.X <= 100 {
		t.Errorf("fused X = %v overshot rover A", skewed.X)
	}
}

func TestFuseInverseVarianceExact(t *testing.T) {
	// Hand-computed: x = (100/1 + 104/4) / (1/1 + 1/4) = 126/1.25 = 100.8
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(0, 104, 0, 0, 2)),
	}
	fused, err := Fuse(testutil.Epoch(0), series)
	testutil.AssertNoError(t, err)

	if math.Abs(fused.X-100.8) > 1e-9 {
		t.Errorf("X = %v, want 100.8", fused.X)
	}
	if math.Abs(fused.WeightX-1.25) > 1e-9 {
		t.Errorf("WeightX = %v, want 1.25", fused.WeightX)
	}
}

func TestFuseSentinelAndMaxUncertainty(t *testing.T) {
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(0, 104, 0, 0, 2)),
	}
	fused, err := Fuse(testutil.Epoch(0), series)
	testutil.AssertNoError(t, err)

	if fused.FixQuality != 0 || fused.SatelliteCount != 0 || fused.Age != 0 || fused.Ratio != 0 {
		t.Errorf("quality metadata should be zero sentinels, got %+v", fused.PositionRecord)
	}
	if fused.SDX != 2 || fused.SDY != 2 || fused.SDZ != 2 {
		t.Errorf("sd = (%v, %v, %v), want maxima (2, 2, 2)", fused.SDX, fused.SDY, fused.SDZ)
	}
	if fused.SDXY != 0.2 {
		t.Errorf("SDXY = %v, want 0.2", fused.SDXY)
	}
}

func TestFuseMissingRecordFailsFast(t *testing.T) {
	series := []*pos.RoverSeries{
		testutil.Series("A", testutil.Record(0, 100, 0, 0, 1)),
		testutil.Series("B", testutil.Record(1, 104, 0, 0, 1)),
	}
	_, err := Fuse(testutil.Epoch(0), series)
	var uge *UnrepairedGapError
	if !errors.As(err, &uge) {
		t.Fatalf("expected UnrepairedGapError, got %v", err)
	}
}

func TestFuseRejectsNonPositiveSD(t *testing.T) {
	bad := testutil.Record(0, 100, 0, 0, 1)
	bad.SDY = 0
	series := []*pos.RoverSeries{
		testutil.Series("A", bad),
		testutil.Series("B", testutil.Record(0, 104, 0, 0, 1)),
	}
	if _, err := Fuse(testutil.Epoch(0), series); err == nil {
		t.Fatal("expected error for zero standard deviation")
	}
}
