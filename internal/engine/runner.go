// Package engine invokes the external rnx2rtkp positioning engine to
// materialize per-rover .pos logs from raw observation files and auxiliary
// products. The fusion core never calls into this package; it only
// consumes the logs the engine writes.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Runner wraps one rnx2rtkp binary plus the processing options file passed
// on every invocation.
type Runner struct {
	// Path is the rnx2rtkp executable, typically from the RNX2RTKP_PATH
	// environment variable.
	Path string
	// ConfFile is the engine options (.conf) file, empty for engine
	// defaults.
	ConfFile string
}

// NewRunner returns a Runner for the binary at path.
func NewRunner(path, confFile string) *Runner {
	return &Runner{Path: path, ConfFile: confFile}
}

// Available reports whether the engine binary exists and is executable.
func (r *Runner) Available() bool {
	if r.Path == "" {
		return false
	}
	info, err := os.Stat(r.Path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}

// Args assembles the engine command line for one rover: rover and base
// observation files, then any auxiliary product files (ephemerides,
// orbits, clocks, ionosphere), writing the solution to outPos.
func (r *Runner) Args(roverObs, baseObs, outPos string, products []string) []string {
	args := []string{}
	if r.ConfFile != "" {
		args = append(args, "-k", r.ConfFile)
	}
	args = append(args, "-o", outPos, roverObs, baseObs)
	args = append(args, products...)
	return args
}

// Run executes the engine for one rover and waits for completion. The
// engine's stderr is included in the returned error on failure.
func (r *Runner) Run(ctx context.Context, roverObs, baseObs, outPos string, products []string) error {
	if !r.Available() {
		return fmt.Errorf("positioning engine not available at %q", r.Path)
	}

	cmd := exec.CommandContext(ctx, r.Path, r.Args(roverObs, baseObs, outPos, products)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("positioning engine failed for %s: %w: %s", roverObs, err, stderr.String())
		}
		return fmt.Errorf("positioning engine failed for %s: %w", roverObs, err)
	}

	if _, err := os.Stat(outPos); err != nil {
		return fmt.Errorf("positioning engine produced no output at %s: %w", outPos, err)
	}
	return nil
}
