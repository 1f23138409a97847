package monitor

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gnss-data/gnssfuse/internal/pos"
)

// palette cycles distinct line colors for rover series. The fused series
// always draws in red and dashed, matching the dashboard.
var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
}

var fusedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}

// RenderAxisPNG draws one ECEF axis of every rover series plus the fused
// trajectory as a PNG line plot. The x axis is seconds since the first
// fused epoch.
func RenderAxisPNG(w io.Writer, axis string, rovers map[string][]pos.PositionRecord, fused []pos.PositionRecord) error {
	if len(fused) == 0 {
		return fmt.Errorf("no fused records to plot")
	}
	origin := fused[0].Time

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s-ecef(m) over time", axis)
	p.X.Label.Text = "Seconds since first epoch"
	p.Y.Label.Text = fmt.Sprintf("%s-ecef (m)", axis)

	// Stable legend order
	names := make([]string, 0, len(rovers))
	for name := range rovers {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		pts := make(plotter.XYs, 0, len(rovers[name]))
		for _, rec := range rovers[name] {
			pts = append(pts, plotter.XY{
				X: rec.Time.Sub(origin).Seconds(),
				Y: axisValue(rec, axis),
			})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("rover %s: %w", name, err)
		}
		line.Color = palette[i%len(palette)]
		p.Add(line)
		p.Legend.Add(name, line)
	}

	fusedPts := make(plotter.XYs, 0, len(fused))
	for _, rec := range fused {
		fusedPts = append(fusedPts, plotter.XY{
			X: rec.Time.Sub(origin).Seconds(),
			Y: axisValue(rec, axis),
		})
	}
	fusedLine, err := plotter.NewLine(fusedPts)
	if err != nil {
		return fmt.Errorf("fused series: %w", err)
	}
	fusedLine.Color = fusedColor
	fusedLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(fusedLine)
	p.Legend.Add("Fused", fusedLine)

	p.Legend.Top = true
	p.Legend.Left = false

	wt, err := p.WriterTo(12*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to build plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// SaveTrajectoryPlots writes trajectory_x.png, trajectory_y.png and
// trajectory_z.png into outputDir.
func SaveTrajectoryPlots(outputDir string, rovers map[string][]pos.PositionRecord, fused []pos.PositionRecord) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for _, axis := range []string{"x", "y", "z"} {
		path := filepath.Join(outputDir, "trajectory_"+axis+".png")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := RenderAxisPNG(f, axis, rovers, fused); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
