package scene

import "sort"

// Extent of every preset floor, in world units along X and Z.
const (
	PresetWidth  = 40.0
	PresetDepth  = 24.0
	wallHeight   = 3.0
	wallThick    = 0.3
	doorHalfSpan = 0.8
)

var presets = map[string]func() *Scene{
	"open":     Open,
	"doorway":  Doorway,
	"corridor": Corridor,
}

// Preset returns a canned scene by name.
func Preset(name string) (*Scene, bool) {
	fn, ok := presets[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// PresetNames lists the canned scenes in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open is a bare floor with a few scattered crates.
func Open() *Scene {
	return Build(
		WithBox("crate-a", 8, 0, 6, 9, 1, 7, Material(0.6, 0.2)),
		WithBox("crate-b", 24, 0, 14, 25.5, 1.2, 15.5, Material(0.6, 0.2)),
		WithSphere("boulder", 30, 0.8, 6, 0.8),
	)
}

// Doorway splits the floor with a brick partition at x=20 that has a single
// open door in the middle.
func Doorway() *Scene {
	mid := PresetDepth / 2
	return Build(
		WithWallX("partition-north", 20, 0, mid-doorHalfSpan, wallHeight, wallThick, Transmission(0.15)),
		WithWallX("partition-south", 20, mid+doorHalfSpan, PresetDepth, wallHeight, wallThick, Transmission(0.15)),
		WithBox("lintel", 20-wallThick/2, 2.2, mid-doorHalfSpan, 20+wallThick/2, wallHeight, mid+doorHalfSpan,
			ChildOf("partition-north")),
		WithBox("curtain", 19.5, 0, mid-doorHalfSpan, 20.5, 2.2, mid+doorHalfSpan, AsTrigger()),
	)
}

// Corridor is a long concrete corridor with side rooms: two parallel walls
// along Z with openings, and a dead-end room that can only be reached the
// long way round.
func Corridor() *Scene {
	return Build(
		WithWallZ("corridor-north-a", 8, 0, 12, wallHeight, wallThick, Material(0.9, 0.05)),
		WithWallZ("corridor-north-b", 8, 14, PresetWidth, wallHeight, wallThick, Material(0.9, 0.05)),
		WithWallZ("corridor-south-a", 16, 0, 26, wallHeight, wallThick, Material(0.9, 0.05)),
		WithWallZ("corridor-south-b", 16, 28, PresetWidth, wallHeight, wallThick, Material(0.9, 0.05)),
		WithWallX("room-divider", 20, 0, 8, wallHeight, wallThick, Transmission(0.05)),
		WithBox("pillar", 30, 0, 11, 31, wallHeight, 12, Transmission(0.3)),
	)
}
