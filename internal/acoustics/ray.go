package acoustics

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// rayEvaluator owns the reusable hit buffer. It is not safe for concurrent
// use; the Engine serialises access.
type rayEvaluator struct {
	scene     ObstacleQuery
	overrides MaterialOverrides
	hits      []Hit
	queries   *uint64 // incremented once per CastRay
}

// ensureCapacity resizes the hit buffer only when MaxHits changes.
func (r *rayEvaluator) ensureCapacity(maxHits int) {
	if len(r.hits) != maxHits {
		r.hits = make([]Hit, maxHits)
	}
}

// evaluate casts one ray of length dist from origin along dir and multiplies
// the transmission factors of every hit, nearest first. It stops once the
// running product falls below the silence threshold.
func (r *rayEvaluator) evaluate(origin, dir r3.Vec, dist float64, cfg *Settings) (float64, int) {
	r.ensureCapacity(cfg.MaxHits)
	if r.scene == nil {
		return 1, 0
	}

	if r.queries != nil {
		*r.queries++
	}
	n := r.scene.CastRay(origin, dir, dist, cfg.OcclusionMask, cfg.QueryTriggers, r.hits)
	if n <= 0 {
		return 1, 0
	}
	if n > len(r.hits) {
		n = len(r.hits)
	}
	hits := r.hits[:n]
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	transmission := 1.0
	occluders := 0
	for i := range hits {
		s := hits[i].Surface
		if s == nil || !s.Alive() {
			continue
		}
		transmission *= resolveMaterialFactor(s, r.overrides, cfg)
		occluders++
		if transmission < cfg.SilenceTransmissionThreshold {
			break
		}
	}

	// Drop surface references so destroyed objects are not pinned between queries.
	clear(hits)
	return clamp01(transmission), occluders
}
