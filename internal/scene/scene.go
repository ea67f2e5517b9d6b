// Package scene is an in-memory 3D obstacle world. It answers the ray and
// material-override queries the acoustics engine consumes.
package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
)

const parallelEpsilon = 1e-12

// Scene holds obstacles in insertion order.
type Scene struct {
	objects []*Object
	version uint64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends objects to the scene.
func (s *Scene) Add(objs ...*Object) {
	for _, o := range objs {
		if o == nil {
			continue
		}
		s.objects = append(s.objects, o)
	}
	s.version++
}

// Remove deletes o from the scene and reports whether it was present.
func (s *Scene) Remove(o *Object) bool {
	for i, cur := range s.objects {
		if cur == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.version++
			return true
		}
	}
	return false
}

// Move translates o by delta.
func (s *Scene) Move(o *Object, delta r3.Vec) {
	o.translate(delta)
	s.version++
}

// Sweep drops destroyed objects and returns how many were removed.
func (s *Scene) Sweep() int {
	kept := s.objects[:0]
	for _, o := range s.objects {
		if o.Alive() {
			kept = append(kept, o)
		}
	}
	removed := len(s.objects) - len(kept)
	for i := len(kept); i < len(s.objects); i++ {
		s.objects[i] = nil
	}
	s.objects = kept
	if removed > 0 {
		s.version++
	}
	return removed
}

// Objects returns the live slice of objects. Callers must not modify it.
func (s *Scene) Objects() []*Object {
	return s.objects
}

// Find returns the first object with the given name.
func (s *Scene) Find(name string) *Object {
	for _, o := range s.objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Version increases on every structural change.
func (s *Scene) Version() uint64 {
	return s.version
}

// CastRay reports objects intersected by the ray within maxDist. When more
// than len(buf) objects are hit, the nearest len(buf) are kept; order within
// buf is unspecified. Destroyed objects that have not been swept are still
// reported.
func (s *Scene) CastRay(origin, dir r3.Vec, maxDist float64, mask acoustics.LayerMask, triggers acoustics.TriggerPolicy, buf []acoustics.Hit) int {
	if len(buf) == 0 {
		return 0
	}
	n := 0
	for _, o := range s.objects {
		if !mask.Has(o.Layer) {
			continue
		}
		if o.Trigger && triggers == acoustics.TriggersIgnore {
			continue
		}
		var (
			t  float64
			ok bool
		)
		switch o.shape {
		case ShapeSphere:
			t, ok = raySphereHitT(origin, dir, maxDist, o.center, o.radius)
		default:
			t, ok = rayBoxHitT(origin, dir, maxDist, o.box)
		}
		if !ok {
			continue
		}
		hit := acoustics.Hit{Surface: o, Distance: t}
		if n < len(buf) {
			buf[n] = hit
			n++
			continue
		}
		far := farthest(buf)
		if t < buf[far].Distance {
			buf[far] = hit
		}
	}
	return n
}

// farthest returns the index of the hit with the largest distance; the
// first one wins ties.
func farthest(hits []acoustics.Hit) int {
	idx := 0
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance > hits[idx].Distance {
			idx = i
		}
	}
	return idx
}

// TransmissionOverride returns the explicit value carried by surface itself.
func (s *Scene) TransmissionOverride(surface acoustics.Surface) (float64, bool) {
	o, ok := surface.(*Object)
	if !ok || o == nil {
		return 0, false
	}
	return o.Override()
}

// rayBoxHitT returns the distance along dir at which the ray enters box,
// clamped to 0 when the origin is inside. The bool is false when the box
// is not reached within maxDist.
func rayBoxHitT(origin, dir r3.Vec, maxDist float64, box r3.Box) (float64, bool) {
	tMin := 0.0
	tMax := maxDist

	axes := [3][4]float64{
		{origin.X, dir.X, box.Min.X, box.Max.X},
		{origin.Y, dir.Y, box.Min.Y, box.Max.Y},
		{origin.Z, dir.Z, box.Min.Z, box.Max.Z},
	}
	for _, a := range axes {
		o, d, lo, hi := a[0], a[1], a[2], a[3]
		if math.Abs(d) < parallelEpsilon {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		invD := 1.0 / d
		t1 := (lo - o) * invD
		t2 := (hi - o) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// raySphereHitT solves |origin + t*dir - center| = radius for the nearest
// t in [0, maxDist]. dir must be unit length.
func raySphereHitT(origin, dir r3.Vec, maxDist float64, center r3.Vec, radius float64) (float64, bool) {
	oc := r3.Sub(origin, center)
	c := r3.Dot(oc, oc) - radius*radius
	if c <= 0 {
		return 0, true
	}
	b := r3.Dot(oc, dir)
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 || t > maxDist {
		return 0, false
	}
	return t, true
}
