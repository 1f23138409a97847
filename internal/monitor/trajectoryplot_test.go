package monitor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnss-data/gnssfuse/internal/pos"
	"github.com/gnss-data/gnssfuse/internal/testutil"
)

// pngMagic is the fixed 8-byte PNG file signature.
var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sampleSeries() (map[string][]pos.PositionRecord, []pos.PositionRecord) {
	rovers := map[string][]pos.PositionRecord{
		"A": {
			testutil.Record(0, 100, 10, 1, 1),
			testutil.Record(1, 101, 11, 2, 1),
			testutil.Record(2, 102, 12, 3, 1),
		},
		"B": {
			testutil.Record(0, 104, 14, 5, 1),
			testutil.Record(1, 105, 15, 6, 1),
			testutil.Record(2, 106, 16, 7, 1),
		},
	}
	fused := []pos.PositionRecord{
		testutil.Record(0, 102, 12, 3, 1),
		testutil.Record(1, 103, 13, 4, 1),
		testutil.Record(2, 104, 14, 5, 1),
	}
	return rovers, fused
}

func TestRenderAxisPNG(t *testing.T) {
	rovers, fused := sampleSeries()

	for _, axis := range []string{"x", "y", "z"} {
		var buf bytes.Buffer
		if err := RenderAxisPNG(&buf, axis, rovers, fused); err != nil {
			t.Fatalf("axis %s: %v", axis, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
			t.Errorf("axis %s: output is not a PNG", axis)
		}
	}
}

func TestRenderAxisPNGEmptyFused(t *testing.T) {
	rovers, _ := sampleSeries()
	var buf bytes.Buffer
	if err := RenderAxisPNG(&buf, "x", rovers, nil); err == nil {
		t.Fatal("expected error for empty fused series")
	}
}

func TestSaveTrajectoryPlots(t *testing.T) {
	rovers, fused := sampleSeries()
	dir := filepath.Join(t.TempDir(), "plots")

	if err := SaveTrajectoryPlots(dir, rovers, fused); err != nil {
		t.Fatal(err)
	}
	for _, axis := range []string{"x", "y", "z"} {
		data, err := os.ReadFile(filepath.Join(dir, "trajectory_"+axis+".png"))
		if err != nil {
			t.Fatalf("axis %s: %v", axis, err)
		}
		if !bytes.HasPrefix(data, pngMagic) {
			t.Errorf("trajectory_%s.png is not a PNG", axis)
		}
	}
}
