package acoustics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b r3.Vec) bool {
	return scalar.EqualWithinAbs(r3.Norm(r3.Sub(a, b)), 0, 1e-12)
}

func TestPerpendicularBasis_Orthonormal(t *testing.T) {
	for _, dir := range []r3.Vec{
		{X: 1},
		{Z: -1},
		r3.Unit(r3.Vec{X: 1, Y: 2, Z: 3}),
		r3.Unit(r3.Vec{X: -0.3, Y: -0.9, Z: 0.1}),
	} {
		right, up := perpendicularBasis(dir)
		if math.Abs(r3.Norm(right)-1) > 1e-9 || math.Abs(r3.Norm(up)-1) > 1e-9 {
			t.Fatalf("dir %v: basis not unit length: |right|=%f |up|=%f", dir, r3.Norm(right), r3.Norm(up))
		}
		if math.Abs(r3.Dot(right, dir)) > 1e-9 || math.Abs(r3.Dot(up, dir)) > 1e-9 || math.Abs(r3.Dot(right, up)) > 1e-9 {
			t.Fatalf("dir %v: basis not orthogonal (right=%v up=%v)", dir, right, up)
		}
	}
}

func TestPerpendicularBasis_VerticalFallsBackToForward(t *testing.T) {
	for _, dir := range []r3.Vec{{Y: 1}, {Y: -1}} {
		right, up := perpendicularBasis(dir)
		for _, c := range []float64{right.X, right.Y, right.Z, up.X, up.Y, up.Z} {
			if math.IsNaN(c) {
				t.Fatalf("dir %v: basis contains NaN (right=%v up=%v)", dir, right, up)
			}
		}
		if math.Abs(r3.Norm(right)-1) > 1e-9 || math.Abs(r3.Dot(right, dir)) > 1e-9 {
			t.Fatalf("dir %v: fallback right %v is not a unit perpendicular", dir, right)
		}
	}
}

func TestFuzzyOffsets_PatternOrder(t *testing.T) {
	// For dir +X the basis is right=+Z, up=+Y.
	offs := fuzzyOffsets(nil, r3.Vec{X: 1}, 0.35, 10)
	if len(offs) != 10 {
		t.Fatalf("expected 10 offsets, got %d", len(offs))
	}
	d := 0.35 * math.Sqrt2 / 2
	want := []r3.Vec{
		{Z: 0.35}, {Z: -0.35}, {Y: 0.35}, {Y: -0.35},
		{Y: d, Z: d}, {Y: -d, Z: d}, {Y: d, Z: -d}, {Y: -d, Z: -d},
		{Z: 0.7}, {Z: -0.7},
	}
	for i := range want {
		if !near(offs[i], want[i]) {
			t.Fatalf("offset %d: expected %v, got %v", i, want[i], offs[i])
		}
	}
}

func TestFuzzyOffsets_ZeroCountAppendsNothing(t *testing.T) {
	if offs := fuzzyOffsets(nil, r3.Vec{X: 1}, 0.35, 0); len(offs) != 0 {
		t.Fatalf("expected no offsets, got %d", len(offs))
	}
}

func TestRunFuzzy_TracksBestAndTrackbacks(t *testing.T) {
	cfg := DefaultSettings()
	// Only rays that stay in the z=0 plane hit the wall, so the two
	// sideways samples are clear and the two vertical ones are blocked.
	sc := &fakeScene{
		hits:   []Hit{{Surface: withOverride(0.1), Distance: 5}},
		filter: func(origin r3.Vec) bool { return origin.Z == 0 },
	}
	ev := newEvaluator(sc)
	dir := r3.Vec{X: 1}

	direct, occ := ev.evaluate(r3.Vec{}, dir, 10, &cfg)
	set := &sampleSet{direct: direct, best: direct, bestOccluder: occ, values: []float64{direct}}
	runFuzzy(ev, set, fuzzyOffsets(nil, dir, cfg.FuzzyRadius, 4), r3.Vec{}, dir, 10, &cfg)

	if set.best != 1 || set.bestOccluder != 0 {
		t.Fatalf("expected best (1, 0), got (%f, %d)", set.best, set.bestOccluder)
	}
	if set.trackbacks != 2 {
		t.Fatalf("expected 2 trackbacks, got %d", set.trackbacks)
	}
	want := []float64{0.1, 1, 1, 0.1, 0.1}
	if len(set.values) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(set.values))
	}
	for i := range want {
		if set.values[i] != want[i] {
			t.Fatalf("sample %d: expected %f, got %f", i, want[i], set.values[i])
		}
	}
}

func TestRunFuzzy_TieKeepsEarlierSample(t *testing.T) {
	cfg := DefaultSettings()
	ev := newEvaluator(&fakeScene{hits: []Hit{{Surface: withOverride(0.5), Distance: 5}}})
	dir := r3.Vec{X: 1}
	set := &sampleSet{direct: 0.5, best: 0.5, bestOccluder: 7, values: []float64{0.5}}
	runFuzzy(ev, set, fuzzyOffsets(nil, dir, 0.35, 4), r3.Vec{}, dir, 10, &cfg)
	if set.bestOccluder != 7 {
		t.Fatalf("equal samples must not replace the direct result, got occluders %d", set.bestOccluder)
	}
	if set.trackbacks != 0 {
		t.Fatalf("expected no trackbacks, got %d", set.trackbacks)
	}
}
