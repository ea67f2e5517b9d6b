// Package navgrid is the corridor path solver: a 2D walkability grid laid
// over the scene floor (the XZ plane) with A* search.
package navgrid

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/scene"
)

// Config describes the grid footprint and the agent it is built for.
type Config struct {
	Origin      r3.Vec  // world position of the (0,0) cell corner; Y is the floor height
	Width       float64 // extent along X
	Depth       float64 // extent along Z
	CellSize    float64
	AgentRadius float64 // obstacles are padded by this much
	AgentHeight float64 // obstacles entirely above floor+height do not block
}

// DefaultConfig covers the preset scene footprint.
func DefaultConfig() Config {
	return Config{
		Width:       scene.PresetWidth,
		Depth:       scene.PresetDepth,
		CellSize:    0.5,
		AgentRadius: 0.2,
		AgentHeight: 1.8,
	}
}

// Grid is a walkability grid where true = blocked.
type Grid struct {
	cfg     Config
	cols    int
	rows    int
	blocked []bool

	version   uint64
	listeners []func()
}

// New builds a grid and runs the first rebuild from sc.
func New(cfg Config, sc *scene.Scene) *Grid {
	if cfg.CellSize <= 0 {
		cfg.CellSize = DefaultConfig().CellSize
	}
	g := &Grid{
		cfg:  cfg,
		cols: max(1, int(math.Ceil(cfg.Width/cfg.CellSize))),
		rows: max(1, int(math.Ceil(cfg.Depth/cfg.CellSize))),
	}
	g.blocked = make([]bool, g.cols*g.rows)
	g.mark(sc)
	g.version = 1
	return g
}

// mark blocks every cell whose footprint overlaps a live solid object that
// reaches into the walkable height band.
func (g *Grid) mark(sc *scene.Scene) {
	clear(g.blocked)
	if sc == nil {
		return
	}
	floor := g.cfg.Origin.Y
	top := floor + g.cfg.AgentHeight
	pad := g.cfg.AgentRadius
	for _, o := range sc.Objects() {
		if !o.Alive() || o.Trigger {
			continue
		}
		b := o.Bounds()
		if b.Max.Y <= floor || b.Min.Y >= top {
			continue
		}
		// Expand bounds by the agent radius so paths keep clearance.
		x0 := b.Min.X - pad - g.cfg.Origin.X
		z0 := b.Min.Z - pad - g.cfg.Origin.Z
		x1 := b.Max.X + pad - g.cfg.Origin.X
		z1 := b.Max.Z + pad - g.cfg.Origin.Z

		cMinX := max(0, int(math.Floor(x0/g.cfg.CellSize)))
		cMinZ := max(0, int(math.Floor(z0/g.cfg.CellSize)))
		cMaxX := min(g.cols-1, int(math.Ceil(x1/g.cfg.CellSize))-1)
		cMaxZ := min(g.rows-1, int(math.Ceil(z1/g.cfg.CellSize))-1)

		for cz := cMinZ; cz <= cMaxZ; cz++ {
			for cx := cMinX; cx <= cMaxX; cx++ {
				g.blocked[cz*g.cols+cx] = true
			}
		}
	}
}

// Rebuild re-derives blocked cells from sc, bumps the grid version and
// notifies every OnRebuilt subscriber synchronously.
func (g *Grid) Rebuild(sc *scene.Scene) {
	g.mark(sc)
	g.version++
	for _, fn := range g.listeners {
		fn()
	}
}

// OnRebuilt subscribes fn to rebuild notifications.
func (g *Grid) OnRebuilt(fn func()) {
	if fn != nil {
		g.listeners = append(g.listeners, fn)
	}
}

// GridVersion increases on every rebuild.
func (g *Grid) GridVersion() uint64 { return g.version }

// CellSize is the grid resolution in world units.
func (g *Grid) CellSize() float64 { return g.cfg.CellSize }

// Dims returns the number of columns (X) and rows (Z).
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }

// IsBlocked returns true if the cell at (cx, cz) is not walkable.
func (g *Grid) IsBlocked(cx, cz int) bool {
	if cx < 0 || cz < 0 || cx >= g.cols || cz >= g.rows {
		return true
	}
	return g.blocked[cz*g.cols+cx]
}

// WorldToCell converts a world position to grid cell coordinates.
func (g *Grid) WorldToCell(p r3.Vec) (int, int) {
	cx := int(math.Floor((p.X - g.cfg.Origin.X) / g.cfg.CellSize))
	cz := int(math.Floor((p.Z - g.cfg.Origin.Z) / g.cfg.CellSize))
	return cx, cz
}

// CellToWorld converts grid cell coordinates to the cell centre at height y.
func (g *Grid) CellToWorld(cx, cz int, y float64) r3.Vec {
	return r3.Vec{
		X: g.cfg.Origin.X + (float64(cx)+0.5)*g.cfg.CellSize,
		Y: y,
		Z: g.cfg.Origin.Z + (float64(cz)+0.5)*g.cfg.CellSize,
	}
}

// --- A* pathfinding ---

type pathNode struct {
	cx, cz int
	g, h   float64
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int           { return len(ol) }
func (ol openList) Less(i, j int) bool { return (ol[i].g + ol[i].h) < (ol[j].g + ol[j].h) }
func (ol openList) Swap(i, j int)      { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x interface{}) {
	n := x.(*pathNode)
	n.index = len(*ol)
	*ol = append(*ol, n)
}
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

func octile(ax, az, bx, bz int) float64 {
	dx := math.Abs(float64(ax - bx))
	dz := math.Abs(float64(az - bz))
	return dx + dz + (math.Sqrt2-2)*math.Min(dx, dz)
}

// FindPath returns world waypoints from start to goal. The first waypoint
// is start itself and, when the goal cell is reached, the last is goal.
// If the goal cannot be reached and bestEffort is set, the path ends at the
// explored cell closest to the goal; otherwise nil is returned. A blocked or
// off-grid start always yields nil.
func (g *Grid) FindPath(start, goal r3.Vec, bestEffort bool) []r3.Vec {
	scx, scz := g.WorldToCell(start)
	gcx, gcz := g.WorldToCell(goal)

	if g.IsBlocked(scx, scz) {
		return nil
	}
	goalOpen := !g.IsBlocked(gcx, gcz)
	if !goalOpen && !bestEffort {
		return nil
	}

	key := func(cx, cz int) int { return cz*g.cols + cx }

	startNode := &pathNode{cx: scx, cz: scz, h: octile(scx, scz, gcx, gcz)}
	ol := &openList{startNode}
	heap.Init(ol)

	closed := make(map[int]bool)
	best := map[int]*pathNode{key(scx, scz): startNode}
	closest := startNode

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if goalOpen && cur.cx == gcx && cur.cz == gcz {
			return g.buildPath(cur, start, goal, true)
		}
		k := key(cur.cx, cur.cz)
		if closed[k] {
			continue
		}
		closed[k] = true
		if cur.h < closest.h || (cur.h == closest.h && cur.g < closest.g) {
			closest = cur
		}

		for _, d := range dirs {
			nx, nz := cur.cx+d[0], cur.cz+d[1]
			if g.IsBlocked(nx, nz) {
				continue
			}
			// Prevent diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if g.IsBlocked(cur.cx+d[0], cur.cz) || g.IsBlocked(cur.cx, cur.cz+d[1]) {
					continue
				}
			}
			nk := key(nx, nz)
			if closed[nk] {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				cost = math.Sqrt2
			}
			ng := cur.g + cost
			if prev, ok := best[nk]; ok && ng >= prev.g {
				continue
			}
			node := &pathNode{cx: nx, cz: nz, g: ng, h: octile(nx, nz, gcx, gcz), parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}

	if !bestEffort {
		return nil
	}
	return g.buildPath(closest, start, goal, false)
}

func (g *Grid) buildPath(end *pathNode, start, goal r3.Vec, reached bool) []r3.Vec {
	var cells [][2]int
	for n := end; n != nil; n = n.parent {
		cells = append(cells, [2]int{n.cx, n.cz})
	}
	// Reverse
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}

	path := make([]r3.Vec, 0, len(cells)+1)
	path = append(path, start)
	// Interior cells carry the start height; the start and goal cells are
	// represented by the exact endpoints.
	for i := 1; i < len(cells); i++ {
		if reached && i == len(cells)-1 {
			break
		}
		path = append(path, g.CellToWorld(cells[i][0], cells[i][1], start.Y))
	}
	if reached {
		path = append(path, goal)
	}
	return path
}
