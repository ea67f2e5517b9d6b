// Package config loads acoustic tuning overrides from JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
)

// DefaultConfigPath is the canonical tuning defaults file. It must stay in
// step with acoustics.DefaultSettings.
const DefaultConfigPath = "config/tuning.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ErrNotJSON is returned when a tuning path lacks the .json extension.
var ErrNotJSON = errors.New("config file must have .json extension")

// TuningConfig is a partial set of acoustic settings. Nil fields keep the
// value of whatever Settings they are applied to.
type TuningConfig struct {
	// Ray evaluation
	SilenceTransmissionThreshold *float64 `json:"silence_transmission_threshold,omitempty"`
	MaxHits                      *int     `json:"max_hits,omitempty"`
	OcclusionMask                *uint32  `json:"occlusion_mask,omitempty"`
	QueryTriggers                *string  `json:"query_triggers,omitempty"` // "ignore" or "collide"

	// Material resolution
	MinMaterialTransmission   *float64 `json:"min_material_transmission,omitempty"`
	MaxMaterialTransmission   *float64 `json:"max_material_transmission,omitempty"`
	DefaultTransmissionFactor *float64 `json:"default_transmission_factor,omitempty"`

	// Fuzzy sampling and echo
	FuzzySampleCount              *int     `json:"fuzzy_sample_count,omitempty"`
	FuzzyRadius                   *float64 `json:"fuzzy_radius,omitempty"`
	TrackbackImprovementThreshold *float64 `json:"trackback_improvement_threshold,omitempty"`
	MinTrackbacksForEcho          *int     `json:"min_trackbacks_for_echo,omitempty"`
	TransmissionStdDevForEcho     *float64 `json:"transmission_std_dev_for_echo,omitempty"`
	EchoStrengthScale             *float64 `json:"echo_strength_scale,omitempty"`

	// Traversal assist
	EnableTraversalAssist      *bool    `json:"enable_traversal_assist,omitempty"`
	TraversalTransmissionFloor *float64 `json:"traversal_transmission_floor,omitempty"`
	TraversalTransmissionBonus *float64 `json:"traversal_transmission_bonus,omitempty"`
	MaxDetourRatioForFidelity  *float64 `json:"max_detour_ratio_for_fidelity,omitempty"`
	ArrivalToleranceCells      *float64 `json:"arrival_tolerance_cells,omitempty"`

	// Result cache
	CacheEnabled      *bool    `json:"cache_enabled,omitempty"`
	CacheQuantizeSize *float64 `json:"cache_quantize_size,omitempty"`
	CacheTTL          *string  `json:"cache_ttl,omitempty"` // duration string like "250ms"
	MaxCacheEntries   *int     `json:"max_cache_entries,omitempty"`

	ZeroDistanceEpsilon *float64 `json:"zero_distance_epsilon,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// EmptyTuningConfig returns a TuningConfig with every field unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// FromSettings returns a fully populated TuningConfig describing s.
func FromSettings(s acoustics.Settings) *TuningConfig {
	return &TuningConfig{
		SilenceTransmissionThreshold:  ptr(s.SilenceTransmissionThreshold),
		MaxHits:                       ptr(s.MaxHits),
		OcclusionMask:                 ptr(uint32(s.OcclusionMask)),
		QueryTriggers:                 ptr(s.QueryTriggers.String()),
		MinMaterialTransmission:       ptr(s.MinMaterialTransmission),
		MaxMaterialTransmission:       ptr(s.MaxMaterialTransmission),
		DefaultTransmissionFactor:     ptr(s.DefaultTransmissionFactor),
		FuzzySampleCount:              ptr(s.FuzzySampleCount),
		FuzzyRadius:                   ptr(s.FuzzyRadius),
		TrackbackImprovementThreshold: ptr(s.TrackbackImprovementThreshold),
		MinTrackbacksForEcho:          ptr(s.MinTrackbacksForEcho),
		TransmissionStdDevForEcho:     ptr(s.TransmissionStdDevForEcho),
		EchoStrengthScale:             ptr(s.EchoStrengthScale),
		EnableTraversalAssist:         ptr(s.EnableTraversalAssist),
		TraversalTransmissionFloor:    ptr(s.TraversalTransmissionFloor),
		TraversalTransmissionBonus:    ptr(s.TraversalTransmissionBonus),
		MaxDetourRatioForFidelity:     ptr(s.MaxDetourRatioForFidelity),
		ArrivalToleranceCells:         ptr(s.ArrivalToleranceCells),
		CacheEnabled:                  ptr(s.CacheEnabled),
		CacheQuantizeSize:             ptr(s.CacheQuantizeSize),
		CacheTTL:                      ptr(s.CacheTTL.String()),
		MaxCacheEntries:               ptr(s.MaxCacheEntries),
		ZeroDistanceEpsilon:           ptr(s.ZeroDistanceEpsilon),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must end
// in .json and the file must be under 1MB. Fields omitted from the file stay
// nil, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("%w, got %q", ErrNotJSON, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded; intended for
// tests and tools run inside the repository.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/ or cmd/<tool>/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

func parseTriggers(s string) (acoustics.TriggerPolicy, error) {
	switch s {
	case "ignore":
		return acoustics.TriggersIgnore, nil
	case "collide":
		return acoustics.TriggersCollide, nil
	}
	return 0, fmt.Errorf("query_triggers must be \"ignore\" or \"collide\", got %q", s)
}

// Validate checks the fields that cannot be judged without a base Settings:
// enum strings and duration strings. Range checks run on the merged result.
func (c *TuningConfig) Validate() error {
	if c.QueryTriggers != nil {
		if _, err := parseTriggers(*c.QueryTriggers); err != nil {
			return err
		}
	}
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
	}
	if c.MaxHits != nil && *c.MaxHits < 1 {
		return fmt.Errorf("max_hits must be at least 1, got %d", *c.MaxHits)
	}
	if c.FuzzySampleCount != nil && *c.FuzzySampleCount < 0 {
		return fmt.Errorf("fuzzy_sample_count must be non-negative, got %d", *c.FuzzySampleCount)
	}
	return nil
}

// ApplyTo overlays every set field onto base and validates the result.
func (c *TuningConfig) ApplyTo(base acoustics.Settings) (acoustics.Settings, error) {
	s := base
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setB := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setF(&s.SilenceTransmissionThreshold, c.SilenceTransmissionThreshold)
	setI(&s.MaxHits, c.MaxHits)
	if c.OcclusionMask != nil {
		s.OcclusionMask = acoustics.LayerMask(*c.OcclusionMask)
	}
	if c.QueryTriggers != nil {
		p, err := parseTriggers(*c.QueryTriggers)
		if err != nil {
			return base, err
		}
		s.QueryTriggers = p
	}
	setF(&s.MinMaterialTransmission, c.MinMaterialTransmission)
	setF(&s.MaxMaterialTransmission, c.MaxMaterialTransmission)
	setF(&s.DefaultTransmissionFactor, c.DefaultTransmissionFactor)
	setI(&s.FuzzySampleCount, c.FuzzySampleCount)
	setF(&s.FuzzyRadius, c.FuzzyRadius)
	setF(&s.TrackbackImprovementThreshold, c.TrackbackImprovementThreshold)
	setI(&s.MinTrackbacksForEcho, c.MinTrackbacksForEcho)
	setF(&s.TransmissionStdDevForEcho, c.TransmissionStdDevForEcho)
	setF(&s.EchoStrengthScale, c.EchoStrengthScale)
	setB(&s.EnableTraversalAssist, c.EnableTraversalAssist)
	setF(&s.TraversalTransmissionFloor, c.TraversalTransmissionFloor)
	setF(&s.TraversalTransmissionBonus, c.TraversalTransmissionBonus)
	setF(&s.MaxDetourRatioForFidelity, c.MaxDetourRatioForFidelity)
	setF(&s.ArrivalToleranceCells, c.ArrivalToleranceCells)
	setB(&s.CacheEnabled, c.CacheEnabled)
	setF(&s.CacheQuantizeSize, c.CacheQuantizeSize)
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		d, err := time.ParseDuration(*c.CacheTTL)
		if err != nil {
			return base, fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
		s.CacheTTL = d
	}
	setI(&s.MaxCacheEntries, c.MaxCacheEntries)
	setF(&s.ZeroDistanceEpsilon, c.ZeroDistanceEpsilon)

	if err := s.Validate(); err != nil {
		return base, err
	}
	return s, nil
}

// Settings applies c to acoustics.DefaultSettings.
func (c *TuningConfig) Settings() (acoustics.Settings, error) {
	return c.ApplyTo(acoustics.DefaultSettings())
}

// Save writes c as indented JSON to path.
func (c *TuningConfig) Save(path string) error {
	if ext := filepath.Ext(path); ext != ".json" {
		return fmt.Errorf("%w, got %q", ErrNotJSON, ext)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
