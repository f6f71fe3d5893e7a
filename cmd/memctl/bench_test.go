package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/memkit/arena"
)

// resetBenchFlags restores the bench flag globals to their defaults.
func resetBenchFlags() {
	benchSize = "256MiB"
	benchCount = 100000
	benchAllocSize = "64"
	benchAlign = 8
	benchMode = "alloc"
	benchUnsafe = false
	benchConfig = ""
}

func TestLoadWorkloadFromFlags(t *testing.T) {
	resetBenchFlags()
	benchSize = "8MiB"
	benchCount = 500
	benchAllocSize = "128"
	benchAlign = 16
	benchMode = "alloc-free"
	benchUnsafe = true

	wl, err := loadWorkload()
	if err != nil {
		t.Fatalf("loadWorkload() error = %v", err)
	}

	if wl.Arena.Size != "8MiB" {
		t.Errorf("arena size = %q, want 8MiB", wl.Arena.Size)
	}
	if !wl.Arena.Unsafe {
		t.Error("arena unsafe flag not carried over")
	}
	if len(wl.Phases) != 1 {
		t.Fatalf("got %d phases, want 1", len(wl.Phases))
	}

	ph := wl.Phases[0]
	if ph.Mode != "alloc-free" || ph.Count != 500 || ph.AllocSize != "128" || ph.Align != 16 {
		t.Errorf("phase = %+v, want flags carried over", ph)
	}
}

func TestLoadWorkloadFromYAML(t *testing.T) {
	resetBenchFlags()

	doc := `arena:
  size: 16MiB
  unsafe: true
phases:
  - name: smalls
    mode: alloc
    count: 250
    alloc_size: 4KiB
  - mode: buffer-push
`
	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write workload: %v", err)
	}
	benchConfig = path

	wl, err := loadWorkload()
	if err != nil {
		t.Fatalf("loadWorkload() error = %v", err)
	}

	if wl.Arena.Size != "16MiB" || !wl.Arena.Unsafe {
		t.Errorf("arena = %+v, want 16MiB unsafe", wl.Arena)
	}
	if len(wl.Phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(wl.Phases))
	}

	first := wl.Phases[0]
	if first.Name != "smalls" || first.Mode != "alloc" || first.Count != 250 ||
		first.AllocSize != "4KiB" {
		t.Errorf("first phase = %+v, want YAML values", first)
	}
	if first.Align != 8 {
		t.Errorf("first phase align = %d, want flag default 8", first.Align)
	}

	second := wl.Phases[1]
	if second.Name != "phase-2" {
		t.Errorf("second phase name = %q, want generated phase-2", second.Name)
	}
	if second.Mode != "buffer-push" || second.Count != 100000 || second.AllocSize != "64" {
		t.Errorf("second phase = %+v, want defaults filled in", second)
	}
}

func TestLoadWorkloadRejectsEmptyConfig(t *testing.T) {
	resetBenchFlags()

	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := os.WriteFile(path, []byte("arena:\n  size: 1MiB\n"), 0o644); err != nil {
		t.Fatalf("failed to write workload: %v", err)
	}
	benchConfig = path

	if _, err := loadWorkload(); err == nil {
		t.Fatal("expected error for config without phases")
	}
}

func TestLoadWorkloadRejectsMissingConfig(t *testing.T) {
	resetBenchFlags()
	benchConfig = filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := loadWorkload(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestRunPhaseModes(t *testing.T) {
	a, err := arena.Reserve(arena.Options{AvailSize: 4 * arena.MiB})
	if err != nil {
		t.Fatalf("failed to reserve arena: %v", err)
	}
	defer a.Release()

	for _, mode := range []string{"alloc", "alloc-free", "buffer-push", "buffer-insert"} {
		t.Run(mode, func(t *testing.T) {
			res, err := runPhase(a, benchPhase{
				Name:      mode,
				Mode:      mode,
				Count:     200,
				AllocSize: "64",
				Align:     8,
			})
			if err != nil {
				t.Fatalf("runPhase() error = %v", err)
			}
			if res.Ops != 200 {
				t.Errorf("ops = %d, want 200", res.Ops)
			}
			if res.MeanNs < 0 || res.P50Ns < 0 {
				t.Errorf("negative latency summary: %+v", res)
			}
			if res.P99Ns < res.P50Ns {
				t.Errorf("p99 %.0f below p50 %.0f", res.P99Ns, res.P50Ns)
			}
			a.Clear()
		})
	}
}

func TestRunPhaseRejectsUnknownMode(t *testing.T) {
	a, err := arena.Reserve(arena.Options{AvailSize: 1 * arena.MiB})
	if err != nil {
		t.Fatalf("failed to reserve arena: %v", err)
	}
	defer a.Release()

	_, err = runPhase(a, benchPhase{Name: "x", Mode: "scribble", Count: 10, AllocSize: "64", Align: 8})
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("error = %v, want unknown mode", err)
	}
}

func TestRunPhaseRejectsBadAlign(t *testing.T) {
	a, err := arena.Reserve(arena.Options{AvailSize: 1 * arena.MiB})
	if err != nil {
		t.Fatalf("failed to reserve arena: %v", err)
	}
	defer a.Release()

	for _, align := range []int{0, -8, 3, 24} {
		_, err = runPhase(a, benchPhase{Name: "x", Mode: "alloc", Count: 10, AllocSize: "64", Align: align})
		if err == nil || !strings.Contains(err.Error(), "power of two") {
			t.Fatalf("align %d: error = %v, want power-of-two error", align, err)
		}
	}
}

func TestBenchCommandJSONReport(t *testing.T) {
	resetBenchFlags()
	quiet = false
	verbose = false
	jsonOut = true
	benchSize = "4MiB"
	benchCount = 300
	benchMode = "alloc"

	output, err := captureOutput(t, runBench)
	if err != nil {
		t.Fatalf("runBench() error = %v", err)
	}

	assertJSON(t, output)
	assertContains(t, output, []string{`"Phases"`, `"RSSAfter"`, `"PageFaults"`, `"alloc"`})
}
