package acoustics

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/monitoring"
	"github.com/Garsondee/Acoustic-Sense/internal/timeutil"
)

// Stats are instrumentation counters for the engine.
type Stats struct {
	Queries      uint64 // ComputeTransmission calls
	Trivial      uint64 // short-circuited zero-distance or invalid pairs
	RayQueries   uint64 // CastRay calls issued to the scene
	PathQueries  uint64 // FindPath calls issued to the solver
	FuzzyRuns    uint64 // queries that ran fuzzy sampling
	TopologyBump uint64 // NotifyTopologyChanged calls, solver rebuilds included
	Cache        CacheStats
}

// Engine answers source/listener transmission queries against a scene.
// All methods are safe for concurrent use; queries are serialised because
// they share the hit buffer and the cache.
type Engine struct {
	mu sync.Mutex

	settings     Settings
	settingsHash uint64

	rays   rayEvaluator
	solver PathSolver
	cache  *Cache
	clock  timeutil.Clock
	logf   func(format string, v ...interface{})

	epoch   uint64
	stats   Stats
	offsets []r3.Vec
	samples sampleSet
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithMaterialOverrides supplies explicit per-object transmission values.
func WithMaterialOverrides(o MaterialOverrides) Option {
	return func(e *Engine) { e.rays.overrides = o }
}

// WithPathSolver enables traversal assist through solver. When the solver
// also implements RebuildNotifier, rebuilds invalidate the cache.
func WithPathSolver(solver PathSolver) Option {
	return func(e *Engine) { e.solver = solver }
}

// WithClock sets the clock used for cache TTL.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger routes diagnostics; nil mutes them.
func WithLogger(logf func(format string, v ...interface{})) Option {
	return func(e *Engine) {
		if logf == nil {
			logf = func(string, ...interface{}) {}
		}
		e.logf = logf
	}
}

// NewEngine builds an engine over scene. Settings are validated up front.
// A scene that also implements MaterialOverrides supplies overrides unless
// WithMaterialOverrides names another source.
func NewEngine(scene ObstacleQuery, opts ...Option) (*Engine, error) {
	e := &Engine{
		settings: DefaultSettings(),
		clock:    timeutil.RealClock{},
		logf: func(format string, v ...interface{}) {
			monitoring.Logf(format, v...)
		},
	}
	e.rays.scene = scene
	e.rays.queries = &e.stats.RayQueries
	for _, o := range opts {
		o(e)
	}
	if e.rays.overrides == nil {
		if mo, ok := scene.(MaterialOverrides); ok {
			e.rays.overrides = mo
		}
	}
	if err := e.settings.Validate(); err != nil {
		return nil, fmt.Errorf("new acoustic engine: %w", err)
	}
	e.settingsHash = e.settings.Hash()
	e.cache = NewCache(e.settings.CacheTTL, e.settings.MaxCacheEntries, e.clock)
	e.rays.ensureCapacity(e.settings.MaxHits)

	if n, ok := e.solver.(RebuildNotifier); ok {
		n.OnRebuilt(e.NotifyTopologyChanged)
	}
	return e, nil
}

// Settings returns the active settings snapshot.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetSettings swaps the tunables. Entries computed under the old settings
// stay in the cache but can no longer match a key.
func (e *Engine) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
	e.settingsHash = s.Hash()
	e.cache.Configure(s.CacheTTL, s.MaxCacheEntries)
	e.logf("acoustics: settings changed (hash %016x)", e.settingsHash)
	return nil
}

// InvalidateAll clears the result cache immediately.
func (e *Engine) InvalidateAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.cache.Len()
	e.cache.InvalidateAll()
	e.logf("acoustics: cache invalidated (%d entries dropped)", n)
}

// NotifyTopologyChanged bumps the topology version and clears the cache.
// It is the handler wired to solver rebuild notifications.
func (e *Engine) NotifyTopologyChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.stats.TopologyBump++
	n := e.cache.Len()
	e.cache.InvalidateAll()
	e.logf("acoustics: topology changed (epoch %d, %d entries dropped)", e.epoch, n)
}

// Stats returns a snapshot of the instrumentation counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.Cache = e.cache.Stats()
	return s
}

// topologyVersion combines the engine epoch with the solver's grid version
// and, when the scene reports one, the scene version. Each only ever grows,
// so the sum does too.
func (e *Engine) topologyVersion() uint64 {
	v := e.epoch
	if e.solver != nil {
		v += e.solver.GridVersion()
	}
	if vs, ok := e.rays.scene.(VersionedScene); ok {
		v += vs.Version()
	}
	return v
}

func finiteVec(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ResolveMaterialFactor exposes the material policy for a single surface.
func (e *Engine) ResolveMaterialFactor(s Surface) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == nil {
		return clamp(e.settings.DefaultTransmissionFactor, e.settings.MinMaterialTransmission, e.settings.MaxMaterialTransmission)
	}
	return resolveMaterialFactor(s, e.rays.overrides, &e.settings)
}

// EvaluateRay casts a single ray of length dist from source along dir and
// returns its transmission and occluder count. The listener position is not
// consulted; origin, direction and length shape the ray.
func (e *Engine) EvaluateRay(source, _, dir r3.Vec, dist float64) (float64, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rays.evaluate(source, dir, dist, &e.settings)
}

// ComputeTransmission estimates how much sound energy reaches listener from
// source. The call never fails: degenerate pairs yield a clear result and
// non-finite input yields a fully blocked one.
func (e *Engine) ComputeTransmission(source, listener r3.Vec) AudioPathResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Queries++
	cfg := &e.settings

	if !finiteVec(source) || !finiteVec(listener) {
		e.stats.Trivial++
		return blockedResult()
	}
	delta := r3.Sub(listener, source)
	dist := r3.Norm(delta)
	if dist <= cfg.ZeroDistanceEpsilon {
		e.stats.Trivial++
		return clearResult()
	}

	var key CacheKey
	if cfg.CacheEnabled {
		key = CacheKey{
			Source:   Quantize(source, cfg.CacheQuantizeSize),
			Listener: Quantize(listener, cfg.CacheQuantizeSize),
			Topology: e.topologyVersion(),
			Settings: e.settingsHash,
		}
		if res, ok := e.cache.Get(key); ok {
			return res
		}
	}

	res := e.compute(source, listener, r3.Scale(1/dist, delta), dist)

	if cfg.CacheEnabled {
		if e.cache.Put(key, res) {
			e.logf("acoustics: cache exceeded %d entries, cleared", cfg.MaxCacheEntries)
		}
	}
	return res
}

func (e *Engine) compute(source, listener, dir r3.Vec, dist float64) AudioPathResult {
	cfg := &e.settings

	direct, directOcc := e.rays.evaluate(source, dir, dist, cfg)
	set := &e.samples
	set.direct = direct
	set.best = direct
	set.bestOccluder = directOcc
	set.trackbacks = 0
	set.values = append(set.values[:0], direct)

	if directOcc > 0 && cfg.FuzzySampleCount > 0 {
		e.stats.FuzzyRuns++
		e.offsets = fuzzyOffsets(e.offsets[:0], dir, cfg.FuzzyRadius, cfg.FuzzySampleCount)
		runFuzzy(&e.rays, set, e.offsets, source, dir, dist, cfg)
	}

	sigma, echo, strength := echoHeuristic(set.values, set.trackbacks, cfg)
	res := AudioPathResult{
		Transmission:       set.best,
		OccluderCount:      set.bestOccluder,
		Trackbacks:         set.trackbacks,
		TransmissionStdDev: sigma,
		EchoEnabled:        echo,
		EchoStrength:       strength,
	}

	if directOcc == 0 {
		res.HasTraversablePath = true
		res.PathDetourRatio = 1
		res.PathFidelity = 1
	} else if cfg.EnableTraversalAssist && e.solver != nil {
		e.stats.PathQueries++
		applyTraversalAssist(e.solver, source, listener, dist, &res, cfg)
	} else {
		notTraversable(&res)
	}

	res.Transmission = clamp01(res.Transmission)
	return res
}
