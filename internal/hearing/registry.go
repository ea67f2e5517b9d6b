// Package hearing is the consumer side of the acoustic engine: it keeps the
// emitter and listener registries and runs the per-tick scan that turns
// transmission queries into detections.
package hearing

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Emitter is a sound source known to the registry.
type Emitter struct {
	ID       uuid.UUID
	Label    string
	Position r3.Vec
	Loudness float64 // 1 = gunfire; quieter sources scale heard strength down
	Active   bool
}

// Registry holds the active audio sources. Membership changes mark it dirty;
// the scanner rescans a dirty registry and invalidates the engine cache.
// Position updates do not, since cached results are keyed by position.
type Registry struct {
	emitters map[uuid.UUID]*Emitter
	order    []uuid.UUID
	dirty    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{emitters: make(map[uuid.UUID]*Emitter)}
}

// Add registers an active emitter and returns its handle.
func (r *Registry) Add(label string, pos r3.Vec, loudness float64) uuid.UUID {
	id := uuid.New()
	r.emitters[id] = &Emitter{ID: id, Label: label, Position: pos, Loudness: loudness, Active: true}
	r.order = append(r.order, id)
	r.dirty = true
	return id
}

// Remove drops an emitter. It returns false for unknown handles.
func (r *Registry) Remove(id uuid.UUID) bool {
	if _, ok := r.emitters[id]; !ok {
		return false
	}
	delete(r.emitters, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.dirty = true
	return true
}

// SetActive toggles whether an emitter is scanned. A no-op change does not
// dirty the registry.
func (r *Registry) SetActive(id uuid.UUID, active bool) bool {
	e, ok := r.emitters[id]
	if !ok {
		return false
	}
	if e.Active != active {
		e.Active = active
		r.dirty = true
	}
	return true
}

// Move updates an emitter's position.
func (r *Registry) Move(id uuid.UUID, pos r3.Vec) bool {
	e, ok := r.emitters[id]
	if !ok {
		return false
	}
	e.Position = pos
	return true
}

// Get returns a copy of the emitter with the given handle.
func (r *Registry) Get(id uuid.UUID) (Emitter, bool) {
	e, ok := r.emitters[id]
	if !ok {
		return Emitter{}, false
	}
	return *e, true
}

// Active returns copies of the active emitters in registration order.
func (r *Registry) Active() []Emitter {
	out := make([]Emitter, 0, len(r.order))
	for _, id := range r.order {
		if e := r.emitters[id]; e.Active {
			out = append(out, *e)
		}
	}
	return out
}

// Len returns the number of registered emitters, inactive ones included.
func (r *Registry) Len() int { return len(r.order) }

// Dirty reports whether membership changed since the last rescan.
func (r *Registry) Dirty() bool { return r.dirty }

func (r *Registry) markClean() { r.dirty = false }
