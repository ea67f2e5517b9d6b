package audiofx

import (
	"math"

	"github.com/gopxl/beep"
)

// lowPass is a one-pole IIR low-pass filter applied per channel.
type lowPass struct {
	streamer beep.Streamer
	alpha    float64
	prev     [2]float64
}

func newLowPass(s beep.Streamer, cutoff float64, rate beep.SampleRate) *lowPass {
	lp := &lowPass{streamer: s}
	lp.setCutoff(cutoff, rate)
	return lp
}

// setCutoff maps a cutoff frequency in Hz to the smoothing coefficient.
func (lp *lowPass) setCutoff(cutoff float64, rate beep.SampleRate) {
	if cutoff <= 0 || rate <= 0 {
		lp.alpha = 0
		return
	}
	lp.alpha = 1 - math.Exp(-2*math.Pi*cutoff/float64(rate))
}

func (lp *lowPass) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = lp.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		for c := 0; c < 2; c++ {
			lp.prev[c] += lp.alpha * (samples[i][c] - lp.prev[c])
			samples[i][c] = lp.prev[c]
		}
	}
	return n, ok
}

func (lp *lowPass) Err() error { return lp.streamer.Err() }

// feedbackEcho mixes a delayed copy of its output back in. With mix 0 it is
// a pass-through, but the delay line keeps running so enabling the echo
// does not start from silence.
type feedbackEcho struct {
	streamer beep.Streamer
	line     [][2]float64
	pos      int
	mix      float64
	feedback float64
}

func newFeedbackEcho(s beep.Streamer, delaySamples int) *feedbackEcho {
	return &feedbackEcho{streamer: s, line: make([][2]float64, max(1, delaySamples))}
}

func (e *feedbackEcho) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		delayed := e.line[e.pos]
		for c := 0; c < 2; c++ {
			dry := samples[i][c]
			e.line[e.pos][c] = dry + delayed[c]*e.feedback
			samples[i][c] = dry + delayed[c]*e.mix
		}
		e.pos = (e.pos + 1) % len(e.line)
	}
	return n, ok
}

func (e *feedbackEcho) Err() error { return e.streamer.Err() }
