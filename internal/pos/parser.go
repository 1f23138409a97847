package pos

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// headerMarker terminates the comment/header block of a .pos log. Every
// line before and including the marker is skipped; everything after it is
// data.
const headerMarker = "%  GPST"

// timeLayout matches the date+time pair at the start of each data line,
// e.g. "2024/01/01 00:00:02.000". Fractional seconds are optional.
const timeLayout = "2006/01/02 15:04:05"

// fieldCount is the number of whitespace-separated fields on a data line:
// date, time, x, y, z, Q, ns, sdx, sdy, sdz, sdxy, sdyz, sdzx, age, ratio.
const fieldCount = 15

// A FormatError reports a malformed data line in a .pos log. It aborts the
// parse: a log with an unreadable line cannot be trusted as a whole.
type FormatError struct {
	Rover  string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("rover %s: malformed .pos line %d: %s", e.Rover, e.Line, e.Reason)
}

// ParseFile parses the .pos log at path into a series for the named rover.
func ParseFile(name, path string) (*RoverSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open position log: %w", err)
	}
	defer f.Close()
	return Parse(name, f)
}

// Parse reads a .pos log and returns the rover's timestamp-indexed series.
// Lines up to and including the canonical column-header marker are skipped;
// each remaining non-empty line must carry the full field set.
func Parse(name string, r io.Reader) (*RoverSeries, error) {
	series := NewRoverSeries(name)
	scanner := bufio.NewScanner(r)

	lineNo := 0
	inBody := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if !inBody {
			if strings.HasPrefix(line, headerMarker) {
				inBody = true
			}
			continue
		}
		if line == "" {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return nil, &FormatError{Rover: name, Line: lineNo, Reason: err.Error()}
		}
		series.Put(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read position log for %s: %w", name, err)
	}
	if !inBody {
		return nil, &FormatError{Rover: name, Line: lineNo, Reason: "column header marker not found"}
	}
	return series, nil
}

func parseLine(line string) (PositionRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldCount {
		return PositionRecord{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}

	// Date and time are two fields on the wire but one timestamp in the
	// model.
	ts, err := time.Parse(timeLayout, fields[0]+" "+fields[1])
	if err != nil {
		return PositionRecord{}, fmt.Errorf("bad timestamp %q: %v", fields[0]+" "+fields[1], err)
	}

	rec := PositionRecord{Time: ts.UTC()}

	floatFields := []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"x-ecef", 2, &rec.X},
		{"y-ecef", 3, &rec.Y},
		{"z-ecef", 4, &rec.Z},
		{"sdx", 7, &rec.SDX},
		{"sdy", 8, &rec.SDY},
		{"sdz", 9, &rec.SDZ},
		{"sdxy", 10, &rec.SDXY},
		{"sdyz", 11, &rec.SDYZ},
		{"sdzx", 12, &rec.SDZX},
		{"age", 13, &rec.Age},
		{"ratio", 14, &rec.Ratio},
	}
	for _, ff := range floatFields {
		v, err := strconv.ParseFloat(fields[ff.idx], 64)
		if err != nil {
			return PositionRecord{}, fmt.Errorf("bad %s value %q", ff.name, fields[ff.idx])
		}
		*ff.dst = v
	}

	if rec.FixQuality, err = strconv.Atoi(fields[5]); err != nil {
		return PositionRecord{}, fmt.Errorf("bad Q value %q", fields[5])
	}
	if rec.SatelliteCount, err = strconv.Atoi(fields[6]); err != nil {
		return PositionRecord{}, fmt.Errorf("bad ns value %q", fields[6])
	}

	return rec, nil
}
