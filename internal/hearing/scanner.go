package hearing

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
	"github.com/Garsondee/Acoustic-Sense/internal/monitoring"
)

const (
	// DefaultHearingRange is how far a listener hears by default, in world units.
	DefaultHearingRange = 60.0
	// DefaultMinHeardStrength is the default threshold below which a
	// listener ignores a sound.
	DefaultMinHeardStrength = 0.12
	// distanceFloor keeps anything inside range faintly audible.
	distanceFloor = 0.10
)

// Engine is the part of acoustics.Engine the scanner needs.
type Engine interface {
	ComputeTransmission(source, listener r3.Vec) acoustics.AudioPathResult
	InvalidateAll()
}

// NervousSystem receives every detection at or above a listener's threshold.
type NervousSystem interface {
	OnHeard(d Detection)
}

// EffectsSink drives audio filters from a query result. It is only called
// for listeners registered with DrivesEffects.
type EffectsSink interface {
	ApplyEffects(emitter uuid.UUID, result acoustics.AudioPathResult)
}

// Listener is a registered hearing position.
type Listener struct {
	ID          uuid.UUID
	Label       string
	Position    r3.Vec
	Range       float64
	MinStrength float64
	Effects     bool // forward results to the EffectsSink
}

// ListenerOption adjusts a listener at registration.
type ListenerOption func(*Listener)

// WithRange sets the hearing range.
func WithRange(r float64) ListenerOption {
	return func(l *Listener) { l.Range = r }
}

// WithMinStrength sets the detection threshold.
func WithMinStrength(v float64) ListenerOption {
	return func(l *Listener) { l.MinStrength = v }
}

// DrivesEffects marks the listener whose results feed the EffectsSink,
// typically the player's ears.
func DrivesEffects() ListenerOption {
	return func(l *Listener) { l.Effects = true }
}

// Detection is one emitter heard by one listener during a scan.
type Detection struct {
	Tick     int
	Listener uuid.UUID
	Emitter  uuid.UUID
	Label    string // emitter label
	Source   r3.Vec
	Distance float64
	Strength float64
	Result   acoustics.AudioPathResult
}

// ScanStats counts scanner activity.
type ScanStats struct {
	Scans      int
	Queries    int
	Detections int
	Rescans    int
}

// Scanner runs the per-tick hearing pass. It is not safe for concurrent use.
type Scanner struct {
	engine   Engine
	registry *Registry

	listeners map[uuid.UUID]*Listener
	order     []uuid.UUID

	sink    NervousSystem
	effects EffectsSink
	log     *EventLog
	stats   ScanStats
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithNervousSystem routes detections to sink.
func WithNervousSystem(sink NervousSystem) ScannerOption {
	return func(s *Scanner) { s.sink = sink }
}

// WithEffects routes results for effect-driving listeners to sink.
func WithEffects(sink EffectsSink) ScannerOption {
	return func(s *Scanner) { s.effects = sink }
}

// WithEventLog records scan events into log.
func WithEventLog(log *EventLog) ScannerOption {
	return func(s *Scanner) { s.log = log }
}

// NewScanner creates a scanner over registry that queries engine.
func NewScanner(engine Engine, registry *Registry, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		engine:    engine,
		registry:  registry,
		listeners: make(map[uuid.UUID]*Listener),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = NewEventLog(false)
	}
	return s
}

// RegisterListener adds a hearing position and returns its handle.
func (s *Scanner) RegisterListener(label string, pos r3.Vec, opts ...ListenerOption) uuid.UUID {
	l := &Listener{
		ID:          uuid.New(),
		Label:       label,
		Position:    pos,
		Range:       DefaultHearingRange,
		MinStrength: DefaultMinHeardStrength,
	}
	for _, o := range opts {
		o(l)
	}
	s.listeners[l.ID] = l
	s.order = append(s.order, l.ID)
	s.log.Add(s.stats.Scans, l.Label, CategoryListener, "register",
		fmt.Sprintf("range=%.1f min=%.2f", l.Range, l.MinStrength), l.Range)
	return l.ID
}

// UnregisterListener removes a hearing position.
func (s *Scanner) UnregisterListener(id uuid.UUID) bool {
	l, ok := s.listeners[id]
	if !ok {
		return false
	}
	delete(s.listeners, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.log.Add(s.stats.Scans, l.Label, CategoryListener, "unregister", "", 0)
	return true
}

// MoveListener updates a listener's position.
func (s *Scanner) MoveListener(id uuid.UUID, pos r3.Vec) bool {
	l, ok := s.listeners[id]
	if !ok {
		return false
	}
	l.Position = pos
	return true
}

// Listeners returns copies of the registered listeners in registration order.
func (s *Scanner) Listeners() []Listener {
	out := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.listeners[id])
	}
	return out
}

// Log returns the scanner's event log.
func (s *Scanner) Log() *EventLog { return s.log }

// Stats returns the scanner counters.
func (s *Scanner) Stats() ScanStats { return s.stats }

// HeardStrength combines linear distance falloff, acoustic transmission and
// source loudness into a [0,1] strength. Anything beyond rng is silent;
// anything inside keeps at least the falloff floor before transmission.
func HeardStrength(dist, rng, transmission, loudness float64) float64 {
	if rng <= 0 || dist > rng || math.IsNaN(dist) {
		return 0
	}
	distanceFactor := 1.0 - dist/rng
	if distanceFactor < distanceFloor {
		distanceFactor = distanceFloor
	}
	return clamp01(distanceFactor * transmission * loudness)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Scan queries every active emitter within range of every listener and
// returns the detections at or above each listener's threshold, in listener
// then emitter registration order.
func (s *Scanner) Scan(tick int) []Detection {
	s.stats.Scans++
	if s.registry.Dirty() {
		s.engine.InvalidateAll()
		s.registry.markClean()
		s.stats.Rescans++
		s.log.Add(tick, "--", CategoryRegistry, "rescan",
			fmt.Sprintf("%d emitters", s.registry.Len()), float64(s.registry.Len()))
		monitoring.Logf("hearing: registry rescan at tick %d (%d emitters)", tick, s.registry.Len())
	}

	emitters := s.registry.Active()
	var out []Detection
	for _, id := range s.order {
		l := s.listeners[id]
		for _, em := range emitters {
			dist := r3.Norm(r3.Sub(em.Position, l.Position))
			if dist > l.Range {
				continue
			}
			res := s.engine.ComputeTransmission(em.Position, l.Position)
			s.stats.Queries++
			if l.Effects && s.effects != nil {
				s.effects.ApplyEffects(em.ID, res)
			}

			strength := HeardStrength(dist, l.Range, res.Transmission, em.Loudness)
			if strength < l.MinStrength {
				s.log.AddVerbose(tick, l.Label, CategoryHearing, "below_threshold",
					fmt.Sprintf("%s %.3f < %.3f", em.Label, strength, l.MinStrength), strength)
				continue
			}

			d := Detection{
				Tick:     tick,
				Listener: l.ID,
				Emitter:  em.ID,
				Label:    em.Label,
				Source:   em.Position,
				Distance: dist,
				Strength: strength,
				Result:   res,
			}
			out = append(out, d)
			if s.sink != nil {
				s.sink.OnHeard(d)
			}
			s.log.Add(tick, l.Label, CategoryHearing, "heard", describe(em.Label, res), strength)
			if res.EchoEnabled {
				s.log.Add(tick, l.Label, CategoryHearing, "echo",
					fmt.Sprintf("%s sigma=%.3f", em.Label, res.TransmissionStdDev), res.EchoStrength)
			}
		}
	}
	s.stats.Detections += len(out)
	return out
}

func describe(label string, res acoustics.AudioPathResult) string {
	v := fmt.Sprintf("%s t=%.3f occ=%d", label, res.Transmission, res.OccluderCount)
	if res.OccluderCount > 0 && res.HasTraversablePath {
		v += fmt.Sprintf(" path detour=%.2f", res.PathDetourRatio)
	}
	return v
}
