package acoustics

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// ErrInvalidSettings is wrapped by every Settings.Validate failure.
var ErrInvalidSettings = errors.New("invalid acoustic settings")

// Settings is the full set of tunables. Every field takes part in Hash, so a
// cached result is only ever served under the settings that produced it.
type Settings struct {
	// Ray evaluation.
	SilenceTransmissionThreshold float64
	MaxHits                      int
	OcclusionMask                LayerMask
	QueryTriggers                TriggerPolicy

	// Material resolution.
	MinMaterialTransmission   float64
	MaxMaterialTransmission   float64
	DefaultTransmissionFactor float64

	// Fuzzy sampling.
	FuzzySampleCount              int
	FuzzyRadius                   float64
	TrackbackImprovementThreshold float64

	// Echo heuristic.
	MinTrackbacksForEcho      int
	TransmissionStdDevForEcho float64
	EchoStrengthScale         float64

	// Traversal assist.
	EnableTraversalAssist      bool
	TraversalTransmissionFloor float64
	TraversalTransmissionBonus float64
	MaxDetourRatioForFidelity  float64
	ArrivalToleranceCells      float64

	// Result cache.
	CacheEnabled      bool
	CacheQuantizeSize float64
	CacheTTL          time.Duration
	MaxCacheEntries   int

	ZeroDistanceEpsilon float64
}

// DefaultSettings returns the hand-tuned defaults.
func DefaultSettings() Settings {
	return Settings{
		SilenceTransmissionThreshold: 0.02,
		MaxHits:                      8,
		OcclusionMask:                AllLayers,
		QueryTriggers:                TriggersIgnore,

		MinMaterialTransmission:   0.0,
		MaxMaterialTransmission:   1.0,
		DefaultTransmissionFactor: 0.6,

		FuzzySampleCount:              4,
		FuzzyRadius:                   0.35,
		TrackbackImprovementThreshold: 0.05,

		MinTrackbacksForEcho:      2,
		TransmissionStdDevForEcho: 0.15,
		EchoStrengthScale:         1.0,

		EnableTraversalAssist:      true,
		TraversalTransmissionFloor: 0.08,
		TraversalTransmissionBonus: 0.18,
		MaxDetourRatioForFidelity:  3.0,
		ArrivalToleranceCells:      1.5,

		CacheEnabled:      true,
		CacheQuantizeSize: 0.5,
		CacheTTL:          250 * time.Millisecond,
		MaxCacheEntries:   2048,

		ZeroDistanceEpsilon: 1e-4,
	}
}

func unitRange(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be in [0,1], got %g", ErrInvalidSettings, name, v)
	}
	return nil
}

// Validate reports the first field that is out of range.
func (s Settings) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"silence_transmission_threshold", s.SilenceTransmissionThreshold},
		{"min_material_transmission", s.MinMaterialTransmission},
		{"max_material_transmission", s.MaxMaterialTransmission},
		{"default_transmission_factor", s.DefaultTransmissionFactor},
		{"trackback_improvement_threshold", s.TrackbackImprovementThreshold},
		{"echo_strength_scale", s.EchoStrengthScale},
		{"traversal_transmission_floor", s.TraversalTransmissionFloor},
		{"traversal_transmission_bonus", s.TraversalTransmissionBonus},
	} {
		if err := unitRange(f.name, f.v); err != nil {
			return err
		}
	}
	if s.MinMaterialTransmission > s.MaxMaterialTransmission {
		return fmt.Errorf("%w: min_material_transmission %g exceeds max %g",
			ErrInvalidSettings, s.MinMaterialTransmission, s.MaxMaterialTransmission)
	}
	if s.MaxHits < 1 {
		return fmt.Errorf("%w: max_hits must be at least 1, got %d", ErrInvalidSettings, s.MaxHits)
	}
	if s.FuzzySampleCount < 0 {
		return fmt.Errorf("%w: fuzzy_sample_count must be non-negative, got %d", ErrInvalidSettings, s.FuzzySampleCount)
	}
	if s.FuzzyRadius < 0 || math.IsNaN(s.FuzzyRadius) {
		return fmt.Errorf("%w: fuzzy_radius must be non-negative, got %g", ErrInvalidSettings, s.FuzzyRadius)
	}
	if s.MinTrackbacksForEcho < 0 {
		return fmt.Errorf("%w: min_trackbacks_for_echo must be non-negative, got %d", ErrInvalidSettings, s.MinTrackbacksForEcho)
	}
	if s.TransmissionStdDevForEcho < 0 || math.IsNaN(s.TransmissionStdDevForEcho) {
		return fmt.Errorf("%w: transmission_std_dev_for_echo must be non-negative, got %g", ErrInvalidSettings, s.TransmissionStdDevForEcho)
	}
	if !(s.MaxDetourRatioForFidelity > 1) {
		return fmt.Errorf("%w: max_detour_ratio_for_fidelity must exceed 1, got %g", ErrInvalidSettings, s.MaxDetourRatioForFidelity)
	}
	if s.ArrivalToleranceCells < 0 || math.IsNaN(s.ArrivalToleranceCells) {
		return fmt.Errorf("%w: arrival_tolerance_cells must be non-negative, got %g", ErrInvalidSettings, s.ArrivalToleranceCells)
	}
	if !(s.CacheQuantizeSize > 0) {
		return fmt.Errorf("%w: cache_quantize_size must be positive, got %g", ErrInvalidSettings, s.CacheQuantizeSize)
	}
	if s.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl must be non-negative, got %s", ErrInvalidSettings, s.CacheTTL)
	}
	if s.MaxCacheEntries < 1 {
		return fmt.Errorf("%w: max_cache_entries must be at least 1, got %d", ErrInvalidSettings, s.MaxCacheEntries)
	}
	if s.ZeroDistanceEpsilon < 0 || math.IsNaN(s.ZeroDistanceEpsilon) {
		return fmt.Errorf("%w: zero_distance_epsilon must be non-negative, got %g", ErrInvalidSettings, s.ZeroDistanceEpsilon)
	}
	return nil
}

// Hash fingerprints every tunable with FNV-1a over fixed-width encodings.
func (s Settings) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	f := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	i := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	b := func(v bool) {
		if v {
			i(1)
		} else {
			i(0)
		}
	}

	f(s.SilenceTransmissionThreshold)
	i(int64(s.MaxHits))
	i(int64(s.OcclusionMask))
	i(int64(s.QueryTriggers))
	f(s.MinMaterialTransmission)
	f(s.MaxMaterialTransmission)
	f(s.DefaultTransmissionFactor)
	i(int64(s.FuzzySampleCount))
	f(s.FuzzyRadius)
	f(s.TrackbackImprovementThreshold)
	i(int64(s.MinTrackbacksForEcho))
	f(s.TransmissionStdDevForEcho)
	f(s.EchoStrengthScale)
	b(s.EnableTraversalAssist)
	f(s.TraversalTransmissionFloor)
	f(s.TraversalTransmissionBonus)
	f(s.MaxDetourRatioForFidelity)
	f(s.ArrivalToleranceCells)
	b(s.CacheEnabled)
	f(s.CacheQuantizeSize)
	i(int64(s.CacheTTL))
	i(int64(s.MaxCacheEntries))
	f(s.ZeroDistanceEpsilon)
	return h.Sum64()
}
