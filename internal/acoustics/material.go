package acoustics

import "math"

// Physical-material heuristic weights: rougher and less bouncy absorbs more.
const (
	frictionAbsorbWeight   = 0.7
	bouncinessAbsorbWeight = 0.3
)

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resolveMaterialFactor maps a struck surface to a transmission factor in
// [MinMaterialTransmission, MaxMaterialTransmission]. An explicit override on
// the surface or any ancestor wins, then the friction/bounciness heuristic,
// then DefaultTransmissionFactor.
func resolveMaterialFactor(s Surface, overrides MaterialOverrides, cfg *Settings) float64 {
	lo, hi := cfg.MinMaterialTransmission, cfg.MaxMaterialTransmission

	if overrides != nil {
		for cur := s; cur != nil; cur = cur.Parent() {
			if v, ok := overrides.TransmissionOverride(cur); ok {
				return clamp(v, lo, hi)
			}
		}
	}

	if pm, ok := s.PhysicalMaterial(); ok {
		absorb := clamp01(pm.Friction*frictionAbsorbWeight + (1-pm.Bounciness)*bouncinessAbsorbWeight)
		return clamp(1-absorb, lo, hi)
	}

	return clamp(cfg.DefaultTransmissionFactor, lo, hi)
}
