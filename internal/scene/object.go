package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
)

// Shape is the collision primitive of an Object.
type Shape int

const (
	ShapeBox    Shape = iota // axis-aligned box
	ShapeSphere              // sphere
)

func (s Shape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// Object is a solid (or trigger volume) in the scene.
type Object struct {
	Name    string
	Layer   int  // 0-31, tested against the query mask
	Trigger bool // trigger volumes only occlude under TriggersCollide

	shape  Shape
	box    r3.Box
	center r3.Vec
	radius float64

	material  *acoustics.PhysicalMaterial
	override  *float64
	parent    *Object
	destroyed bool
}

// NewBox creates an axis-aligned box obstacle.
func NewBox(name string, box r3.Box) *Object {
	return &Object{Name: name, shape: ShapeBox, box: box.Canon()}
}

// NewSphere creates a spherical obstacle.
func NewSphere(name string, center r3.Vec, radius float64) *Object {
	if radius < 0 {
		radius = -radius
	}
	return &Object{Name: name, shape: ShapeSphere, center: center, radius: radius}
}

// Shape returns the collision primitive.
func (o *Object) Shape() Shape { return o.shape }

// Bounds returns the object's axis-aligned bounding box.
func (o *Object) Bounds() r3.Box {
	if o.shape == ShapeSphere {
		r := r3.Vec{X: o.radius, Y: o.radius, Z: o.radius}
		return r3.Box{Min: r3.Sub(o.center, r), Max: r3.Add(o.center, r)}
	}
	return o.box
}

// Alive is false once Destroy has been called.
func (o *Object) Alive() bool { return !o.destroyed }

// Destroy marks the object dead. The scene keeps reporting it until Sweep.
func (o *Object) Destroy() { o.destroyed = true }

// Parent returns the parent object, or nil at the root of the hierarchy.
func (o *Object) Parent() acoustics.Surface {
	if o.parent == nil {
		return nil
	}
	return o.parent
}

// SetParent attaches o under p. A nil p detaches it. Attaching to a
// descendant would form a cycle and is ignored.
func (o *Object) SetParent(p *Object) {
	for cur := p; cur != nil; cur = cur.parent {
		if cur == o {
			return
		}
	}
	o.parent = p
}

// SetPhysicalMaterial attaches a friction/bounciness descriptor.
func (o *Object) SetPhysicalMaterial(m acoustics.PhysicalMaterial) {
	o.material = &m
}

// PhysicalMaterial returns the material descriptor, if any.
func (o *Object) PhysicalMaterial() (acoustics.PhysicalMaterial, bool) {
	if o.material == nil {
		return acoustics.PhysicalMaterial{}, false
	}
	return *o.material, true
}

// SetOverride sets an explicit transmission value for o and its children.
func (o *Object) SetOverride(transmission float64) {
	o.override = &transmission
}

// Override returns the explicit transmission value carried by o itself.
func (o *Object) Override() (float64, bool) {
	if o.override == nil {
		return 0, false
	}
	return *o.override, true
}

func (o *Object) translate(delta r3.Vec) {
	if o.shape == ShapeSphere {
		o.center = r3.Add(o.center, delta)
		return
	}
	o.box = o.box.Add(delta)
}
