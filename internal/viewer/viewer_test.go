package viewer

import (
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func newDoorwayViewer(t *testing.T) *Viewer {
	t.Helper()
	v, err := New(WithPreset("doorway"))
	if err != nil {
		t.Fatalf("new viewer: %v", err)
	}
	return v
}

func TestScreenWorldMapping(t *testing.T) {
	x, y := worldToScreen(10, 5)
	if x != 260 || y != 140 {
		t.Fatalf("expected (260,140), got (%v,%v)", x, y)
	}
	wx, wz, inside := screenToWorld(260, 140)
	if wx != 10 || wz != 5 || !inside {
		t.Fatalf("expected (10,5,true), got (%v,%v,%v)", wx, wz, inside)
	}
	if _, _, inside := screenToWorld(0, 0); inside {
		t.Fatal("the margin is not on the floor")
	}
}

func TestHeatColor(t *testing.T) {
	if c := heatColor(0); c.R != blockedColor.R || c.G != blockedColor.G || c.B != blockedColor.B || c.A != 255 {
		t.Fatalf("zero should map to the blocked colour, got %v", c)
	}
	if c := heatColor(1); c.R != clearColor.R || c.G != clearColor.G || c.B != clearColor.B {
		t.Fatalf("one should map to the clear colour, got %v", c)
	}
	if heatColor(2) != heatColor(1) {
		t.Fatal("values above one should clamp")
	}
	if heatColor(-1) != heatColor(0) {
		t.Fatal("negative values should clamp")
	}
	mid := heatColor(0.5)
	if mid.R <= blockedColor.R || mid.R >= clearColor.R {
		t.Fatalf("mid value should blend, got %v", mid)
	}
}

func TestObjectAt(t *testing.T) {
	v := newDoorwayViewer(t)
	if o := objectAt(v.sc, 20, 3); o == nil || o.Name != "partition-north" {
		t.Fatalf("expected partition-north, got %v", o)
	}
	if o := objectAt(v.sc, 20, 12); o == nil || o.Name != "curtain" {
		t.Fatalf("expected the curtain to win over the lintel, got %v", o)
	}
	if o := objectAt(v.sc, 5, 5); o != nil {
		t.Fatalf("expected nothing on open floor, got %s", o.Name)
	}
}

func TestRefresh_HeatmapAndProbe(t *testing.T) {
	v := newDoorwayViewer(t)
	if !v.dirty {
		t.Fatal("a fresh viewer should need a refresh")
	}
	v.refresh()
	if v.dirty {
		t.Fatal("refresh should clear the dirty flag")
	}
	if v.probe.Transmission != 1 || v.probe.OccluderCount != 0 {
		t.Fatalf("source and listener line up with the door, got %+v", v.probe)
	}
	if v.path != nil {
		t.Fatal("no path overlay for a clear line")
	}
	if got := v.heat[12*v.cols+12]; got != 1 {
		t.Fatalf("cell next to the source should be clear, got %f", got)
	}
	if got := v.heat[3*v.cols+30]; got >= 1 {
		t.Fatalf("cell behind the partition should be occluded, got %f", got)
	}
	for i, h := range v.heat {
		if h < 0 || h > 1 {
			t.Fatalf("heat cell %d out of range: %f", i, h)
		}
	}
}

func TestRefresh_PathThroughDoor(t *testing.T) {
	v := newDoorwayViewer(t)
	v.setSource(r3.Vec{X: 15, Y: earHeight, Z: 6})
	v.setListener(r3.Vec{X: 25, Y: earHeight, Z: 6})
	v.refresh()
	if v.probe.OccluderCount == 0 {
		t.Fatalf("the partition should occlude, got %+v", v.probe)
	}
	if len(v.path) < 2 {
		t.Fatalf("expected a path through the door, got %d waypoints", len(v.path))
	}
	if r := v.Report(); !strings.Contains(r, "detour=") || !strings.Contains(r, "scene=doorway") {
		t.Fatalf("report should describe the detour:\n%s", r)
	}
}

func TestSetEndpoints_OnlyDirtyOnChange(t *testing.T) {
	v := newDoorwayViewer(t)
	v.refresh()
	v.setSource(v.source)
	v.setListener(v.listener)
	if v.dirty {
		t.Fatal("re-setting the same endpoints should not force a refresh")
	}
	v.setListener(r3.Vec{X: 31, Y: earHeight, Z: 12})
	if !v.dirty {
		t.Fatal("moving the listener should force a refresh")
	}
}

func TestToggles(t *testing.T) {
	v := newDoorwayViewer(t)
	v.toggleFuzzy()
	if v.engine.Settings().FuzzySampleCount != 0 || v.status != "fuzzy sampling off" {
		t.Fatalf("fuzzy toggle off failed: samples=%d status=%q", v.engine.Settings().FuzzySampleCount, v.status)
	}
	v.toggleFuzzy()
	if v.engine.Settings().FuzzySampleCount != 4 {
		t.Fatalf("fuzzy toggle should restore the base sample count, got %d", v.engine.Settings().FuzzySampleCount)
	}
	v.toggleTraversal()
	if v.engine.Settings().EnableTraversalAssist || !v.dirty {
		t.Fatal("traversal toggle should disable the assist and force a refresh")
	}
}

func TestDestroyAt_RebuildsTopology(t *testing.T) {
	v := newDoorwayViewer(t)
	before := v.grid.GridVersion()
	if v.destroyAt(5, 5) {
		t.Fatal("nothing to destroy on open floor")
	}
	if !v.destroyAt(20, 3) {
		t.Fatal("expected to destroy the north partition")
	}
	if v.sc.Find("partition-north") != nil {
		t.Fatal("destroyed object should be swept")
	}
	if v.grid.GridVersion() <= before {
		t.Fatal("grid should be rebuilt")
	}
	if v.engine.Stats().TopologyBump == 0 {
		t.Fatal("grid rebuild should notify the engine")
	}
	v.setSource(r3.Vec{X: 15, Y: earHeight, Z: 6})
	v.setListener(r3.Vec{X: 25, Y: earHeight, Z: 6})
	v.refresh()
	if v.probe.Transmission != 1 {
		t.Fatalf("line should be clear once the wall is gone, got %+v", v.probe)
	}
}

func TestNextPreset_Cycles(t *testing.T) {
	v, err := New(WithPreset("open"))
	if err != nil {
		t.Fatal(err)
	}
	if err := v.nextPreset(); err != nil {
		t.Fatal(err)
	}
	if v.PresetName() != "corridor" || v.status != "scene corridor" {
		t.Fatalf("expected wrap to corridor, got %s (%q)", v.PresetName(), v.status)
	}
}

func TestCopyReport(t *testing.T) {
	v := newDoorwayViewer(t)
	v.refresh()
	var copied string
	v.copyText = func(s string) error { copied = s; return nil }
	v.copyReport()
	if copied != v.Report() || v.status != "probe report copied" {
		t.Fatalf("unexpected copy result: status=%q", v.status)
	}

	v.copyText = func(string) error { return errors.New("no clipboard") }
	v.copyReport()
	if v.status != "clipboard: no clipboard" {
		t.Fatalf("expected clipboard error in status, got %q", v.status)
	}
}

func TestLayout(t *testing.T) {
	v := newDoorwayViewer(t)
	w, h := v.Layout(100, 100)
	if sw, sh := v.Size(); w != sw || h != sh {
		t.Fatalf("layout and size disagree: %dx%d vs %dx%d", w, h, sw, sh)
	}
	if w != 1000 || h != 766 {
		t.Fatalf("expected 1000x766, got %dx%d", w, h)
	}
}
