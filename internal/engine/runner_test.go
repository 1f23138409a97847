package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name     string
		conf     string
		products []string
		want     []string
	}{
		{
			name: "no conf no products",
			want: []string{"-o", "out.pos", "rover.obs", "base.obs"},
		},
		{
			name: "with conf",
			conf: "rtk.conf",
			want: []string{"-k", "rtk.conf", "-o", "out.pos", "rover.obs", "base.obs"},
		},
		{
			name:     "with products",
			products: []string{"brdc0010.24n", "orbit.sp3", "clock.clk"},
			want:     []string{"-o", "out.pos", "rover.obs", "base.obs", "brdc0010.24n", "orbit.sp3", "clock.clk"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner("/usr/local/bin/rnx2rtkp", tt.conf)
			got := r.Args("rover.obs", "base.obs", "out.pos", tt.products)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	dir := t.TempDir()

	exe := filepath.Join(dir, "rnx2rtkp")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"executable file", exe, true},
		{"non-executable file", plain, false},
		{"directory", dir, false},
		{"missing", filepath.Join(dir, "gone"), false},
		{"empty path", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewRunner(tt.path, "").Available(); got != tt.want {
				t.Errorf("Available(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRunUnavailableEngine(t *testing.T) {
	r := NewRunner(filepath.Join(t.TempDir(), "missing"), "")
	err := r.Run(context.Background(), "rover.obs", "base.obs", "out.pos", nil)
	if err == nil || !strings.Contains(err.Error(), "not available") {
		t.Fatalf("err = %v, want engine-not-available error", err)
	}
}

func TestRunReportsMissingOutput(t *testing.T) {
	// A stub engine that exits cleanly but writes nothing.
	dir := t.TempDir()
	exe := filepath.Join(dir, "rnx2rtkp")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(exe, "")
	err := r.Run(context.Background(), "rover.obs", "base.obs", filepath.Join(dir, "out.pos"), nil)
	if err == nil || !strings.Contains(err.Error(), "no output") {
		t.Fatalf("err = %v, want missing-output error", err)
	}
}

func TestRunSurfacesEngineStderr(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "rnx2rtkp")
	script := "#!/bin/sh\necho 'no observation data' >&2\nexit 1\n"
	if err := os.WriteFile(exe, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(exe, "")
	err := r.Run(context.Background(), "rover.obs", "base.obs", filepath.Join(dir, "out.pos"), nil)
	if err == nil || !strings.Contains(err.Error(), "no observation data") {
		t.Fatalf("err = %v, want engine stderr in error", err)
	}
}
