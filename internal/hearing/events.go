package hearing

import (
	"fmt"
	"strings"
)

// Event categories recorded by the scanner.
const (
	CategoryHearing  = "hearing"
	CategoryRegistry = "registry"
	CategoryListener = "listener"
)

// Event is one recorded occurrence during scanning.
type Event struct {
	Tick     int
	Listener string  // listener label, or "--" for global events
	Category string  // hearing, registry, listener
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the event as a fixed-width log line.
//
//	[T=042] L0       hearing   heard            rifle t=0.215 occ=2 path
func (e Event) String() string {
	return fmt.Sprintf("[T=%03d] %-8s %-9s %-16s %s",
		e.Tick, e.Listener, e.Category, e.Key, e.Value)
}

// EventLog collects structured scan events. It is unbounded and
// machine-readable.
type EventLog struct {
	entries []Event
	verbose bool
}

// NewEventLog creates an EventLog. If verbose is true, sub-threshold
// queries are recorded too.
func NewEventLog(verbose bool) *EventLog {
	return &EventLog{verbose: verbose}
}

// Add records a new event.
func (l *EventLog) Add(tick int, listener, category, key, value string, numVal float64) {
	l.entries = append(l.entries, Event{
		Tick:     tick,
		Listener: listener,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an event only when verbose mode is on.
func (l *EventLog) AddVerbose(tick int, listener, category, key, value string, numVal float64) {
	if !l.verbose {
		return
	}
	l.Add(tick, listener, category, key, value, numVal)
}

// Entries returns all recorded events.
func (l *EventLog) Entries() []Event {
	return l.entries
}

// Filter returns events matching the given category and/or key.
// Pass empty string to match any value for that field.
func (l *EventLog) Filter(category, key string) []Event {
	var out []Event
	for _, e := range l.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterListener returns events for a specific listener label.
func (l *EventLog) FilterListener(label string) []Event {
	var out []Event
	for _, e := range l.entries {
		if e.Listener == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns events within [fromTick, toTick] inclusive.
func (l *EventLog) FilterTickRange(fromTick, toTick int) []Event {
	var out []Event
	for _, e := range l.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many events match the given category and key.
func (l *EventLog) CountCategory(category, key string) int {
	return len(l.Filter(category, key))
}

// LastOf returns the most recent event matching category+key, or false if none.
func (l *EventLog) LastOf(category, key string) (Event, bool) {
	events := l.Filter(category, key)
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}

// HasEntry returns true if at least one event matches category, key, and value substring.
func (l *EventLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range l.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (l *EventLog) Format() string {
	return formatEvents(l.entries)
}

// FormatRange returns a log string filtered to a tick range.
func (l *EventLog) FormatRange(fromTick, toTick int) string {
	return formatEvents(l.FilterTickRange(fromTick, toTick))
}

func formatEvents(events []Event) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable digest of scanning so far.
func (l *EventLog) Summary(tick int, stats ScanStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)
	fmt.Fprintf(&sb, "Scans: %d  queries: %d  detections: %d  rescans: %d\n",
		stats.Scans, stats.Queries, stats.Detections, stats.Rescans)

	heard := map[string]int{}
	var labels []string
	for _, e := range l.Filter(CategoryHearing, "heard") {
		if _, ok := heard[e.Listener]; !ok {
			labels = append(labels, e.Listener)
		}
		heard[e.Listener]++
	}
	if len(labels) == 0 {
		sb.WriteString("Heard: none\n")
		return sb.String()
	}
	for _, label := range labels {
		fmt.Fprintf(&sb, "Heard: %s x%d\n", label, heard[label])
	}
	return sb.String()
}
