package acoustics

import "gonum.org/v1/gonum/spatial/r3"

type fakeSurface struct {
	name     string
	dead     bool
	parent   *fakeSurface
	material *PhysicalMaterial
	override *float64
}

func (s *fakeSurface) Alive() bool { return !s.dead }

func (s *fakeSurface) Parent() Surface {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *fakeSurface) PhysicalMaterial() (PhysicalMaterial, bool) {
	if s.material == nil {
		return PhysicalMaterial{}, false
	}
	return *s.material, true
}

func withOverride(v float64) *fakeSurface {
	return &fakeSurface{override: &v}
}

type fakeOverrides struct{}

func (fakeOverrides) TransmissionOverride(s Surface) (float64, bool) {
	fs, ok := s.(*fakeSurface)
	if !ok || fs.override == nil {
		return 0, false
	}
	return *fs.override, true
}

// fakeScene returns a fixed hit list for every ray whose origin passes the
// optional filter.
type fakeScene struct {
	hits   []Hit
	filter func(origin r3.Vec) bool
	calls  int
}

func (f *fakeScene) CastRay(origin, _ r3.Vec, _ float64, _ LayerMask, _ TriggerPolicy, buf []Hit) int {
	f.calls++
	if f.filter != nil && !f.filter(origin) {
		return 0
	}
	return copy(buf, f.hits)
}

type fakeSolver struct {
	path     []r3.Vec
	cellSize float64
	version  uint64
	calls    int
}

func (f *fakeSolver) FindPath(_, _ r3.Vec, _ bool) []r3.Vec {
	f.calls++
	return f.path
}

func (f *fakeSolver) CellSize() float64   { return f.cellSize }
func (f *fakeSolver) GridVersion() uint64 { return f.version }
