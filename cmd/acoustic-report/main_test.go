package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopxl/beep"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
	"github.com/Garsondee/Acoustic-Sense/internal/audiofx"
	"github.com/Garsondee/Acoustic-Sense/internal/hearing"
	"github.com/Garsondee/Acoustic-Sense/internal/navgrid"
	"github.com/Garsondee/Acoustic-Sense/internal/scene"
)

func TestEveryPresetHasProbesAndEmitters(t *testing.T) {
	for _, name := range scene.PresetNames() {
		if len(presetProbes[name]) == 0 {
			t.Fatalf("preset %q has no probes", name)
		}
		if len(presetEmitters[name]) == 0 {
			t.Fatalf("preset %q has no emitters", name)
		}
		if _, ok := presetListeners[name]; !ok {
			t.Fatalf("preset %q has no listener position", name)
		}
	}
}

func TestLoadSettings_SamplesOverride(t *testing.T) {
	s, err := loadSettings("", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.FuzzySampleCount != 3 {
		t.Fatalf("expected fuzzy_sample_count=3, got %d", s.FuzzySampleCount)
	}

	def, err := loadSettings("", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def != acoustics.DefaultSettings() {
		t.Fatalf("expected defaults when nothing is overridden, got %+v", def)
	}
}

func TestLoadSettings_FileAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"fuzzy_radius": 0.9, "enable_traversal_assist": false}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := loadSettings(path, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.FuzzyRadius != 0.9 || s.EnableTraversalAssist {
		t.Fatalf("file overrides not applied: %+v", s)
	}

	if _, err := loadSettings(filepath.Join(dir, "missing.json"), -1); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := loadSettings(path, -5); err != nil {
		t.Fatalf("negative samples should mean keep, got %v", err)
	}
}

func TestRunProbes_DoorwayOrdering(t *testing.T) {
	sc := scene.Doorway()
	grid := navgrid.New(navgrid.DefaultConfig(), sc)
	eng, err := acoustics.NewEngine(sc, acoustics.WithPathSolver(grid), acoustics.WithLogger(t.Logf))
	if err != nil {
		t.Fatal(err)
	}
	runs := runProbes(eng, grid, presetProbes["doorway"])
	if len(runs) != 3 {
		t.Fatalf("expected 3 probe results, got %d", len(runs))
	}
	door, wall := runs[0], runs[1]
	if door.result.OccluderCount != 0 || door.result.Transmission != 1 {
		t.Fatalf("door probe should be clear, got %+v", door.result)
	}
	if wall.result.OccluderCount == 0 {
		t.Fatalf("wall probe should be occluded, got %+v", wall.result)
	}
	if !wall.result.HasTraversablePath || wall.path == 0 {
		t.Fatalf("wall probe should route through the door, got %+v path=%d", wall.result, wall.path)
	}
	if traversalString(door.result, door.path) != "direct" {
		t.Fatalf("unexpected traversal string for clear probe: %s", traversalString(door.result, door.path))
	}
	if !strings.HasPrefix(traversalString(wall.result, wall.path), "detour=") {
		t.Fatalf("unexpected traversal string for wall probe: %s", traversalString(wall.result, wall.path))
	}

	runProbes(eng, grid, presetProbes["doorway"])
	if st := eng.Stats(); st.Cache.Hits < 3 {
		t.Fatalf("second pass should hit the cache, stats=%+v", st.Cache)
	}
}

func TestBuildHearing_DrivesBank(t *testing.T) {
	sc := scene.Doorway()
	eng, err := acoustics.NewEngine(sc, acoustics.WithLogger(t.Logf))
	if err != nil {
		t.Fatal(err)
	}
	bank := audiofx.NewBank(audiofx.SampleRate)
	log := hearing.NewEventLog(false)
	s, err := buildHearing(eng, bank, log, presetEmitters["doorway"], presetListeners["doorway"])
	if err != nil {
		t.Fatal(err)
	}
	if bank.Len() != len(presetEmitters["doorway"]) {
		t.Fatalf("expected one chain per emitter, got %d", bank.Len())
	}
	s.Scan(1)
	if s.Stats().Queries == 0 {
		t.Fatal("scan should query the engine")
	}
	if lvl := mixLevel(bank, 512); lvl <= 0 || lvl > 2*float64(bank.Len()) {
		t.Fatalf("mix level out of range: %f", lvl)
	}
}

func TestEchoAndTraversalStrings(t *testing.T) {
	if got := echoString(acoustics.AudioPathResult{}); got != "off" {
		t.Fatalf("expected off, got %s", got)
	}
	if got := echoString(acoustics.AudioPathResult{EchoEnabled: true, EchoStrength: 0.5}); got != "on(strength=0.50)" {
		t.Fatalf("unexpected echo string: %s", got)
	}
	blocked := acoustics.AudioPathResult{OccluderCount: 2}
	if got := traversalString(blocked, 0); got != "none" {
		t.Fatalf("expected none, got %s", got)
	}
	if got := fmtVec(r3.Vec{X: 1, Y: 2.5, Z: -3}); got != "(1.0,2.5,-3.0)" {
		t.Fatalf("unexpected vector format: %s", got)
	}
}

func TestMixLevel(t *testing.T) {
	if got := mixLevel(beep.Silence(-1), 64); got != 0 {
		t.Fatalf("silence should measure 0, got %f", got)
	}
	if got := mixLevel(beep.Silence(-1), 0); got != 0 {
		t.Fatalf("empty window should measure 0, got %f", got)
	}
}

func TestHitRate(t *testing.T) {
	if got := hitRate(acoustics.CacheStats{}); got != "n/a" {
		t.Fatalf("expected n/a, got %s", got)
	}
	if got := hitRate(acoustics.CacheStats{Hits: 3, Misses: 1}); got != "75.0%" {
		t.Fatalf("expected 75.0%%, got %s", got)
	}
}
