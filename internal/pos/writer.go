package pos

import (
	"fmt"
	"io"
)

// Header is the canonical column-header line written at the top of every
// .pos output. It matches the input layout so fused output can be re-read
// by the same parser.
const Header = "%  GPST                      x-ecef(m)      y-ecef(m)      z-ecef(m)   Q  ns   sdx(m)   sdy(m)   sdz(m)  sdxy(m)  sdyz(m)  sdzx(m) age(s)  ratio"

// writeLayout prints the epoch with millisecond precision, matching the
// positioning engine's own output.
const writeLayout = "2006/01/02 15:04:05.000"

// FormatLine renders one record as a .pos data line.
func FormatLine(rec PositionRecord) string {
	return fmt.Sprintf("%s %14.4f %14.4f %14.4f %3d %3d %8.4f %8.4f %8.4f %8.4f %8.4f %8.4f %6.2f %6.1f",
		rec.Time.Format(writeLayout),
		rec.X, rec.Y, rec.Z,
		rec.FixQuality, rec.SatelliteCount,
		rec.SDX, rec.SDY, rec.SDZ,
		rec.SDXY, rec.SDYZ, rec.SDZX,
		rec.Age, rec.Ratio)
}

// WriteRecords writes the header line followed by one data line per record.
func WriteRecords(w io.Writer, recs []PositionRecord) error {
	if _, err := fmt.Fprintln(w, Header); err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := fmt.Fprintln(w, FormatLine(rec)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSeries writes a rover series in increasing epoch order.
func (s *RoverSeries) WriteSeries(w io.Writer) error {
	return WriteRecords(w, s.Records())
}
