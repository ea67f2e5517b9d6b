package acoustics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings_Valid(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
}

func TestSettingsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"silence above one", func(s *Settings) { s.SilenceTransmissionThreshold = 1.5 }, "silence_transmission_threshold"},
		{"nan default factor", func(s *Settings) { s.DefaultTransmissionFactor = math.NaN() }, "default_transmission_factor"},
		{"min above max", func(s *Settings) { s.MinMaterialTransmission = 0.8; s.MaxMaterialTransmission = 0.2 }, "min_material_transmission"},
		{"zero max hits", func(s *Settings) { s.MaxHits = 0 }, "max_hits"},
		{"negative samples", func(s *Settings) { s.FuzzySampleCount = -1 }, "fuzzy_sample_count"},
		{"negative radius", func(s *Settings) { s.FuzzyRadius = -0.1 }, "fuzzy_radius"},
		{"detour ratio of one", func(s *Settings) { s.MaxDetourRatioForFidelity = 1 }, "max_detour_ratio_for_fidelity"},
		{"zero quantize", func(s *Settings) { s.CacheQuantizeSize = 0 }, "cache_quantize_size"},
		{"negative ttl", func(s *Settings) { s.CacheTTL = -time.Second }, "cache_ttl"},
		{"zero capacity", func(s *Settings) { s.MaxCacheEntries = 0 }, "max_cache_entries"},
		{"floor above one", func(s *Settings) { s.TraversalTransmissionFloor = 2 }, "traversal_transmission_floor"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := DefaultSettings()
			c.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSettings))
			assert.Contains(t, err.Error(), c.field)
		})
	}
}

func TestSettingsHash_Stable(t *testing.T) {
	assert.Equal(t, DefaultSettings().Hash(), DefaultSettings().Hash())
}

func TestSettingsHash_ChangesPerField(t *testing.T) {
	base := DefaultSettings().Hash()
	mutations := map[string]func(*Settings){
		"silence":      func(s *Settings) { s.SilenceTransmissionThreshold = 0.03 },
		"max hits":     func(s *Settings) { s.MaxHits = 9 },
		"mask":         func(s *Settings) { s.OcclusionMask = 1 },
		"triggers":     func(s *Settings) { s.QueryTriggers = TriggersCollide },
		"min material": func(s *Settings) { s.MinMaterialTransmission = 0.01 },
		"max material": func(s *Settings) { s.MaxMaterialTransmission = 0.99 },
		"default":      func(s *Settings) { s.DefaultTransmissionFactor = 0.61 },
		"samples":      func(s *Settings) { s.FuzzySampleCount = 5 },
		"radius":       func(s *Settings) { s.FuzzyRadius = 0.36 },
		"improvement":  func(s *Settings) { s.TrackbackImprovementThreshold = 0.06 },
		"trackbacks":   func(s *Settings) { s.MinTrackbacksForEcho = 3 },
		"std dev":      func(s *Settings) { s.TransmissionStdDevForEcho = 0.16 },
		"echo scale":   func(s *Settings) { s.EchoStrengthScale = 0.9 },
		"assist":       func(s *Settings) { s.EnableTraversalAssist = false },
		"floor":        func(s *Settings) { s.TraversalTransmissionFloor = 0.09 },
		"bonus":        func(s *Settings) { s.TraversalTransmissionBonus = 0.19 },
		"detour":       func(s *Settings) { s.MaxDetourRatioForFidelity = 3.5 },
		"tolerance":    func(s *Settings) { s.ArrivalToleranceCells = 2 },
		"cache":        func(s *Settings) { s.CacheEnabled = false },
		"quantize":     func(s *Settings) { s.CacheQuantizeSize = 0.25 },
		"ttl":          func(s *Settings) { s.CacheTTL = time.Second },
		"capacity":     func(s *Settings) { s.MaxCacheEntries = 1024 },
		"epsilon":      func(s *Settings) { s.ZeroDistanceEpsilon = 1e-3 },
	}
	seen := map[uint64]string{}
	for name, m := range mutations {
		s := DefaultSettings()
		m(&s)
		h := s.Hash()
		assert.NotEqual(t, base, h, "changing %s must change the hash", name)
		if other, dup := seen[h]; dup {
			t.Fatalf("%s and %s hash to the same value", name, other)
		}
		seen[h] = name
	}
}

func TestTriggerPolicyString(t *testing.T) {
	assert.Equal(t, "ignore", TriggersIgnore.String())
	assert.Equal(t, "collide", TriggersCollide.String())
}

func TestLayerMaskHas(t *testing.T) {
	m := LayerMask(1<<0 | 1<<3)
	assert.True(t, m.Has(0))
	assert.True(t, m.Has(3))
	assert.False(t, m.Has(1))
	assert.True(t, AllLayers.Has(31))
}
