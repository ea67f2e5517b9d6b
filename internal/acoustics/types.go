package acoustics

import "gonum.org/v1/gonum/spatial/r3"

// LayerMask selects which obstacle layers a ray query considers.
// Bit i set means layer i is tested.
type LayerMask uint32

// AllLayers tests every layer.
const AllLayers LayerMask = ^LayerMask(0)

// Has reports whether layer is selected by the mask.
func (m LayerMask) Has(layer int) bool {
	if layer < 0 || layer > 31 {
		return false
	}
	return m&(1<<uint(layer)) != 0
}

// TriggerPolicy controls whether trigger volumes are reported by ray queries.
type TriggerPolicy int

const (
	TriggersIgnore  TriggerPolicy = iota // trigger volumes never occlude
	TriggersCollide                      // trigger volumes are reported like solids
)

func (p TriggerPolicy) String() string {
	switch p {
	case TriggersIgnore:
		return "ignore"
	case TriggersCollide:
		return "collide"
	default:
		return "unknown"
	}
}

// PhysicalMaterial is the friction/bounciness descriptor some surfaces carry.
type PhysicalMaterial struct {
	Friction   float64
	Bounciness float64
}

// Surface is a struck obstacle as seen by the material resolver.
type Surface interface {
	// Alive is false once the underlying object has been destroyed.
	Alive() bool
	// Parent returns the next object up the hierarchy, or nil at the root.
	Parent() Surface
	// PhysicalMaterial returns the surface's material descriptor, if any.
	PhysicalMaterial() (PhysicalMaterial, bool)
}

// Hit is one ray/obstacle intersection. A nil Surface marks a stale entry.
type Hit struct {
	Surface  Surface
	Distance float64
}

// ObstacleQuery is the scene the engine queries. It is never owned by the engine.
type ObstacleQuery interface {
	// CastRay writes up to len(buf) hits along the ray into buf and returns
	// how many were written. Hits may arrive in any order.
	CastRay(origin, dir r3.Vec, maxDist float64, mask LayerMask, triggers TriggerPolicy, buf []Hit) int
}

// VersionedScene is an ObstacleQuery whose version grows on every structural
// change. The engine folds it into cache keys.
type VersionedScene interface {
	ObstacleQuery
	Version() uint64
}

// MaterialOverrides supplies explicit per-object transmission values.
type MaterialOverrides interface {
	// TransmissionOverride returns the override carried directly by s.
	// Ancestors are walked by the resolver, not the implementation.
	TransmissionOverride(s Surface) (float64, bool)
}

// PathSolver is the external corridor solver used by traversal assist.
type PathSolver interface {
	// FindPath returns ordered waypoints from start toward goal, or nil.
	// With bestEffort set the path may stop short of goal.
	FindPath(start, goal r3.Vec, bestEffort bool) []r3.Vec
	// CellSize is the solver's grid resolution in world units.
	CellSize() float64
	// GridVersion increases every time the solver's topology is rebuilt.
	GridVersion() uint64
}

// RebuildNotifier is implemented by solvers that announce topology rebuilds.
type RebuildNotifier interface {
	OnRebuilt(fn func())
}

// AudioPathResult is the per-query answer returned to callers and cached.
type AudioPathResult struct {
	Transmission       float64 // best of direct and fuzzy samples, possibly raised by the traversal floor
	OccluderCount      int     // hits contributing to the best sample
	Trackbacks         int     // fuzzy samples beating the direct ray by the improvement threshold
	TransmissionStdDev float64 // population σ over direct + fuzzy samples
	EchoEnabled        bool
	EchoStrength       float64
	HasTraversablePath bool
	PathDetourRatio    float64 // ≥1 when traversable, 0 otherwise
	PathFidelity       float64
}

// clearResult is the answer for an unobstructed or degenerate pair.
func clearResult() AudioPathResult {
	return AudioPathResult{
		Transmission:       1,
		HasTraversablePath: true,
		PathDetourRatio:    1,
		PathFidelity:       1,
	}
}

// blockedResult is the conservative answer when inputs cannot be evaluated.
func blockedResult() AudioPathResult {
	return AudioPathResult{}
}
