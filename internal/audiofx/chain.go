// Package audiofx drives per-emitter audio filters from acoustic query
// results: gain follows transmission, a low-pass muffles occluded sources
// and a feedback echo follows the echo heuristic.
package audiofx

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
)

const (
	// SampleRate is the rate chains are built for unless told otherwise.
	SampleRate = beep.SampleRate(44100)

	minCutoff     = 500.0   // Hz, fully occluded
	maxCutoff     = 18000.0 // Hz, clear line
	echoDelay     = 120 * time.Millisecond
	echoFeedback  = 0.35
	maxEchoWetMix = 0.6
)

// Params are the filter settings derived from one AudioPathResult.
type Params struct {
	Gain    float64 // linear, [0,1]
	Cutoff  float64 // low-pass cutoff in Hz
	EchoMix float64 // wet level of the delayed signal
}

// ParamsFor maps a query result onto filter settings. The cutoff moves on a
// log scale between minCutoff and maxCutoff.
func ParamsFor(res acoustics.AudioPathResult) Params {
	t := res.Transmission
	if t < 0 || math.IsNaN(t) {
		t = 0
	}
	t = math.Min(t, 1)
	p := Params{
		Gain:   t,
		Cutoff: minCutoff * math.Pow(maxCutoff/minCutoff, t),
	}
	if res.EchoEnabled {
		p.EchoMix = maxEchoWetMix * math.Max(0, math.Min(1, res.EchoStrength))
	}
	return p
}

// Chain is a beep.Streamer that runs a source through low-pass, echo and
// volume stages. Apply may be called from a different goroutine than the
// one pulling samples.
type Chain struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	lp     *lowPass
	echo   *feedbackEcho
	volume *effects.Volume
	params Params
	closed bool
}

// NewChain wraps src. It starts fully open: unity gain, no muffling, no echo.
func NewChain(src beep.Streamer, rate beep.SampleRate) *Chain {
	if rate <= 0 {
		rate = SampleRate
	}
	c := &Chain{rate: rate}
	c.lp = newLowPass(src, maxCutoff, rate)
	c.echo = newFeedbackEcho(c.lp, rate.N(echoDelay))
	c.echo.feedback = echoFeedback
	c.volume = &effects.Volume{Streamer: c.echo, Base: 2}
	c.set(Params{Gain: 1, Cutoff: maxCutoff})
	return c
}

func (c *Chain) set(p Params) {
	c.params = p
	c.lp.setCutoff(p.Cutoff, c.rate)
	c.echo.mix = p.EchoMix
	// log2(0) is -Inf, so zero gain goes through the Silent flag.
	if p.Gain <= 0 {
		c.volume.Volume = 0
		c.volume.Silent = true
	} else {
		c.volume.Volume = math.Log2(p.Gain)
		c.volume.Silent = false
	}
}

// Apply retunes the chain for a new query result.
func (c *Chain) Apply(res acoustics.AudioPathResult) {
	p := ParamsFor(res)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(p)
}

// Params returns the current filter settings.
func (c *Chain) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Close ends the stream; a mixer holding the chain drops it on the next pull.
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Chain) Stream(samples [][2]float64) (n int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, false
	}
	return c.volume.Stream(samples)
}

func (c *Chain) Err() error { return c.volume.Err() }

// Bank owns one chain per emitter and mixes them into a single stream.
// It implements hearing.EffectsSink and beep.Streamer.
type Bank struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	chains map[uuid.UUID]*Chain
	mixer  *beep.Mixer
}

// NewBank creates an empty bank.
func NewBank(rate beep.SampleRate) *Bank {
	if rate <= 0 {
		rate = SampleRate
	}
	return &Bank{
		rate:   rate,
		chains: make(map[uuid.UUID]*Chain),
		mixer:  &beep.Mixer{},
	}
}

// Attach wraps src in a chain for emitter id and adds it to the mix.
// Re-attaching an id closes the previous chain.
func (b *Bank) Attach(id uuid.UUID, src beep.Streamer) *Chain {
	c := NewChain(src, b.rate)
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.chains[id]; ok {
		old.Close()
	}
	b.chains[id] = c
	b.mixer.Add(c)
	return c
}

// Detach closes and forgets the chain for id.
func (b *Bank) Detach(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chains[id]
	if !ok {
		return false
	}
	c.Close()
	delete(b.chains, id)
	return true
}

// Chain returns the chain attached for id.
func (b *Bank) Chain(id uuid.UUID) (*Chain, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chains[id]
	return c, ok
}

// ApplyEffects retunes the chain for emitter. Unknown emitters are ignored.
func (b *Bank) ApplyEffects(emitter uuid.UUID, res acoustics.AudioPathResult) {
	if c, ok := b.Chain(emitter); ok {
		c.Apply(res)
	}
}

// Stream pulls the mix of every attached chain. The bank itself is the
// streamer to hand to an audio device.
func (b *Bank) Stream(samples [][2]float64) (n int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mixer.Stream(samples)
}

func (b *Bank) Err() error { return nil }

// Playing returns how many chains the mixer still pulls from.
func (b *Bank) Playing() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mixer.Len()
}

// Len returns the number of attached chains.
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chains)
}
