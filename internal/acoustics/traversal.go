package acoustics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// pathLength sums consecutive waypoint distances.
func pathLength(path []r3.Vec) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += r3.Norm(r3.Sub(path[i], path[i-1]))
	}
	return total
}

// notTraversable clears the traversal fields; transmission is untouched.
func notTraversable(res *AudioPathResult) {
	res.HasTraversablePath = false
	res.PathDetourRatio = 0
	res.PathFidelity = 0
}

// applyTraversalAssist raises res.Transmission to a floor when the corridor
// solver finds a walkable route from source to listener. The floor grows with
// path fidelity: a straight walk gets the whole bonus, a detour at or beyond
// MaxDetourRatioForFidelity gets none.
func applyTraversalAssist(solver PathSolver, source, listener r3.Vec, straight float64, res *AudioPathResult, cfg *Settings) {
	path := solver.FindPath(source, listener, true)
	if len(path) < 2 {
		notTraversable(res)
		return
	}

	tolerance := solver.CellSize() * cfg.ArrivalToleranceCells
	if r3.Norm(r3.Sub(path[len(path)-1], listener)) > tolerance {
		notTraversable(res)
		return
	}

	length := pathLength(path)
	detour := 1.0
	if straight > 0 {
		detour = math.Max(1, length/straight)
	}
	if math.IsNaN(detour) || math.IsInf(detour, 0) {
		notTraversable(res)
		return
	}
	fidelity := 1 - clamp01((detour-1)/(cfg.MaxDetourRatioForFidelity-1))

	res.HasTraversablePath = true
	res.PathDetourRatio = detour
	res.PathFidelity = fidelity

	floor := clamp01(cfg.TraversalTransmissionFloor + cfg.TraversalTransmissionBonus*fidelity)
	res.Transmission = math.Max(res.Transmission, floor)
}
