package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
)

// Option adds content to a scene under construction.
type Option func(*Scene)

// ObjectOption adjusts a single object as it is added.
type ObjectOption func(*Scene, *Object)

// Build constructs a scene from the given options, applied in order.
func Build(opts ...Option) *Scene {
	s := New()
	for _, o := range opts {
		o(s)
	}
	return s
}

func add(s *Scene, o *Object, mods []ObjectOption) {
	for _, m := range mods {
		m(s, o)
	}
	s.Add(o)
}

// WithBox adds an axis-aligned box spanning the two corners.
func WithBox(name string, x0, y0, z0, x1, y1, z1 float64, mods ...ObjectOption) Option {
	return func(s *Scene) {
		add(s, NewBox(name, r3.NewBox(x0, y0, z0, x1, y1, z1)), mods)
	}
}

// WithWallX adds a wall whose face is perpendicular to X at x, spanning
// z0..z1 from the floor up to height.
func WithWallX(name string, x, z0, z1, height, thickness float64, mods ...ObjectOption) Option {
	h := thickness / 2
	return WithBox(name, x-h, 0, z0, x+h, height, z1, mods...)
}

// WithWallZ adds a wall whose face is perpendicular to Z at z, spanning
// x0..x1 from the floor up to height.
func WithWallZ(name string, z, x0, x1, height, thickness float64, mods ...ObjectOption) Option {
	h := thickness / 2
	return WithBox(name, x0, 0, z-h, x1, height, z+h, mods...)
}

// WithSphere adds a spherical obstacle.
func WithSphere(name string, cx, cy, cz, radius float64, mods ...ObjectOption) Option {
	return func(s *Scene) {
		add(s, NewSphere(name, r3.Vec{X: cx, Y: cy, Z: cz}, radius), mods)
	}
}

// Transmission sets an explicit transmission override.
func Transmission(v float64) ObjectOption {
	return func(_ *Scene, o *Object) { o.SetOverride(v) }
}

// Material attaches a friction/bounciness descriptor.
func Material(friction, bounciness float64) ObjectOption {
	return func(_ *Scene, o *Object) {
		o.SetPhysicalMaterial(acoustics.PhysicalMaterial{Friction: friction, Bounciness: bounciness})
	}
}

// OnLayer places the object on layer.
func OnLayer(layer int) ObjectOption {
	return func(_ *Scene, o *Object) { o.Layer = layer }
}

// AsTrigger marks the object as a trigger volume.
func AsTrigger() ObjectOption {
	return func(_ *Scene, o *Object) { o.Trigger = true }
}

// ChildOf parents the object under an already-added object by name.
func ChildOf(parent string) ObjectOption {
	return func(s *Scene, o *Object) {
		if p := s.Find(parent); p != nil {
			o.SetParent(p)
		}
	}
}
