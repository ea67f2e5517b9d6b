package acoustics

import "gonum.org/v1/gonum/stat"

// echoStdDevFloor guards the strength ratio against a zero threshold.
const echoStdDevFloor = 1e-6

// echoHeuristic decides echo from the spread of sampled transmissions.
// Wide variance across neighbouring rays plus several offsets that clearly
// beat the direct ray reads as sound bleeding around an edge.
func echoHeuristic(values []float64, trackbacks int, cfg *Settings) (sigma float64, enabled bool, strength float64) {
	if len(values) > 0 {
		_, sigma = stat.PopMeanStdDev(values, nil)
	}
	enabled = trackbacks >= cfg.MinTrackbacksForEcho && sigma >= cfg.TransmissionStdDevForEcho
	if !enabled {
		return sigma, false, 0
	}
	ratio := sigma/max(echoStdDevFloor, cfg.TransmissionStdDevForEcho) - 1
	strength = clamp01(clamp01(ratio) * cfg.EchoStrengthScale)
	return sigma, true, strength
}
