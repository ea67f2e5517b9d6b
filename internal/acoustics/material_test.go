package acoustics

import (
	"math"
	"testing"
)

func TestResolveMaterial_OverrideWins(t *testing.T) {
	cfg := DefaultSettings()
	s := withOverride(0.42)
	s.material = &PhysicalMaterial{Friction: 1, Bounciness: 0}
	if got := resolveMaterialFactor(s, fakeOverrides{}, &cfg); got != 0.42 {
		t.Fatalf("expected override 0.42, got %f", got)
	}
}

func TestResolveMaterial_AncestorOverride(t *testing.T) {
	cfg := DefaultSettings()
	root := withOverride(0.3)
	mid := &fakeSurface{parent: root}
	leaf := &fakeSurface{parent: mid, material: &PhysicalMaterial{Friction: 0, Bounciness: 1}}
	if got := resolveMaterialFactor(leaf, fakeOverrides{}, &cfg); got != 0.3 {
		t.Fatalf("expected ancestor override 0.3, got %f", got)
	}
}

func TestResolveMaterial_OverrideClampedToRange(t *testing.T) {
	cfg := DefaultSettings()
	cfg.MinMaterialTransmission = 0.1
	cfg.MaxMaterialTransmission = 0.9
	if got := resolveMaterialFactor(withOverride(1.5), fakeOverrides{}, &cfg); got != 0.9 {
		t.Fatalf("expected clamp to 0.9, got %f", got)
	}
	if got := resolveMaterialFactor(withOverride(-2), fakeOverrides{}, &cfg); got != 0.1 {
		t.Fatalf("expected clamp to 0.1, got %f", got)
	}
}

func TestResolveMaterial_PhysicalHeuristic(t *testing.T) {
	cfg := DefaultSettings()
	cases := []struct {
		friction, bounciness, want float64
	}{
		{0.5, 0.5, 0.5},    // absorb = 0.35 + 0.15
		{0, 1, 1},          // slick and bouncy passes everything
		{1, 0, 0},          // absorb = 0.7 + 0.3
		{2, 0, 0},          // absorb saturates at 1
		{0.2, 0.8, 0.80},   // absorb = 0.14 + 0.06
		{0.9, 0.05, 0.085}, // absorb = 0.63 + 0.285
	}
	for _, c := range cases {
		s := &fakeSurface{material: &PhysicalMaterial{Friction: c.friction, Bounciness: c.bounciness}}
		got := resolveMaterialFactor(s, fakeOverrides{}, &cfg)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("friction=%.2f bounciness=%.2f: expected %f, got %f", c.friction, c.bounciness, c.want, got)
		}
	}
}

func TestResolveMaterial_DefaultFactor(t *testing.T) {
	cfg := DefaultSettings()
	if got := resolveMaterialFactor(&fakeSurface{}, nil, &cfg); got != 0.6 {
		t.Fatalf("expected default 0.6, got %f", got)
	}
	cfg.MaxMaterialTransmission = 0.5
	if got := resolveMaterialFactor(&fakeSurface{}, nil, &cfg); got != 0.5 {
		t.Fatalf("expected default clamped to 0.5, got %f", got)
	}
}

func TestResolveMaterial_NilOverridesSkipsStepOne(t *testing.T) {
	cfg := DefaultSettings()
	if got := resolveMaterialFactor(withOverride(0.1), nil, &cfg); got != 0.6 {
		t.Fatalf("without an override source the default applies, got %f", got)
	}
}
