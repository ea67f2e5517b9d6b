package acoustics

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// basisEpsilon is the cross-product length below which the direction is
// treated as parallel to world-up.
const basisEpsilon = 1e-6

var (
	worldUp      = r3.Vec{Y: 1}
	worldForward = r3.Vec{Z: 1}
)

// offsetRing is the priority order of one ring of offsets in (right, up)
// coordinates: the four axis directions, then the four diagonals.
var offsetRing = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{math.Sqrt2 / 2, math.Sqrt2 / 2},
	{math.Sqrt2 / 2, -math.Sqrt2 / 2},
	{-math.Sqrt2 / 2, math.Sqrt2 / 2},
	{-math.Sqrt2 / 2, -math.Sqrt2 / 2},
}

// perpendicularBasis returns unit vectors right and up, both perpendicular
// to dir. A dir parallel to world-up falls back to world-forward.
func perpendicularBasis(dir r3.Vec) (right, up r3.Vec) {
	right = r3.Cross(dir, worldUp)
	if scalar.EqualWithinAbs(r3.Norm(right), 0, basisEpsilon) {
		right = r3.Cross(dir, worldForward)
	}
	right = r3.Unit(right)
	up = r3.Unit(r3.Cross(right, dir))
	return right, up
}

// fuzzyOffsets appends count offsets of the deterministic pattern to dst.
// The ring repeats at 2r, 3r, ... once its eight slots are used.
func fuzzyOffsets(dst []r3.Vec, dir r3.Vec, radius float64, count int) []r3.Vec {
	if count <= 0 {
		return dst
	}
	right, up := perpendicularBasis(dir)
	for i := 0; i < count; i++ {
		slot := offsetRing[i%len(offsetRing)]
		scale := radius * float64(i/len(offsetRing)+1)
		o := r3.Add(r3.Scale(slot[0]*scale, right), r3.Scale(slot[1]*scale, up))
		dst = append(dst, o)
	}
	return dst
}

// sampleSet is the outcome of the direct ray plus any fuzzy samples.
type sampleSet struct {
	direct       float64
	best         float64
	bestOccluder int
	trackbacks   int
	values       []float64 // direct first, then fuzzy samples in evaluation order
}

// runFuzzy evaluates every offset ray pair around the direct ray. Each
// offset shifts both endpoints; direction and length are unchanged.
func runFuzzy(ev *rayEvaluator, set *sampleSet, offsets []r3.Vec, source, dir r3.Vec, dist float64, cfg *Settings) {
	for _, o := range offsets {
		t, occ := ev.evaluate(r3.Add(source, o), dir, dist, cfg)
		set.values = append(set.values, t)
		if t > set.best {
			set.best = t
			set.bestOccluder = occ
		}
		if t-set.direct > cfg.TrackbackImprovementThreshold {
			set.trackbacks++
		}
	}
}
