package main

import (
	"flag"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
	"github.com/Garsondee/Acoustic-Sense/internal/audiofx"
	"github.com/Garsondee/Acoustic-Sense/internal/config"
	"github.com/Garsondee/Acoustic-Sense/internal/hearing"
	"github.com/Garsondee/Acoustic-Sense/internal/monitoring"
	"github.com/Garsondee/Acoustic-Sense/internal/navgrid"
	"github.com/Garsondee/Acoustic-Sense/internal/scene"
)

const earHeight = 1.2

// probe is a named source/listener pair queried against a preset.
type probe struct {
	name     string
	source   r3.Vec
	listener r3.Vec
}

// emitterSetup is a sound source placed in the hearing pass.
type emitterSetup struct {
	label    string
	pos      r3.Vec
	loudness float64
	toneHz   float64
}

func at(x, z float64) r3.Vec { return r3.Vec{X: x, Y: earHeight, Z: z} }

var presetProbes = map[string][]probe{
	"open": {
		{"clear-line", at(2, 2), at(38, 2)},
		{"low-crate", r3.Vec{X: 5, Y: 0.5, Z: 6.5}, r3.Vec{X: 12, Y: 0.5, Z: 6.5}},
		{"boulder", at(26, 6), at(34, 6)},
	},
	"doorway": {
		{"through-door", at(15, 12), at(25, 12)},
		{"through-wall", at(15, 6), at(25, 6)},
		{"far-corner", at(2, 2), at(38, 22)},
	},
	"corridor": {
		{"along-corridor", at(2, 11.5), at(38, 11.5)},
		{"into-side-room", at(10, 12), at(10, 4)},
		{"dead-end", at(18, 4), at(22, 4)},
	},
}

var presetEmitters = map[string][]emitterSetup{
	"open": {
		{"rifle", at(30, 18), 1, 440},
		{"footsteps", at(9, 3), 0.3, 180},
	},
	"doorway": {
		{"rifle", at(12, 6), 1, 440},
		{"radio", at(15, 12), 0.6, 660},
		{"footsteps", at(17, 18), 0.3, 180},
	},
	"corridor": {
		{"rifle", at(6, 4), 1, 440},
		{"radio", at(34, 12), 0.6, 660},
		{"footsteps", at(24, 20), 0.3, 180},
	},
}

var presetListeners = map[string]r3.Vec{
	"open":     at(20, 12),
	"doorway":  at(25, 12),
	"corridor": at(22, 12),
}

type probeStats struct {
	probe  probe
	result acoustics.AudioPathResult
	path   int // waypoints on the corridor path, 0 when none
}

func main() {
	var sceneName string
	var tuningPath string
	var dumpPath string
	var repeat int
	var samples int
	var ticks int
	var verbose bool

	flag.StringVar(&sceneName, "scene", "doorway", "preset scene ("+strings.Join(scene.PresetNames(), ", ")+")")
	flag.StringVar(&tuningPath, "tuning", "", "JSON tuning overrides applied to the defaults")
	flag.StringVar(&dumpPath, "dump-tuning", "", "write the effective tuning to this .json path and exit")
	flag.IntVar(&repeat, "repeat", 2, "passes over the probe set (later passes exercise the cache)")
	flag.IntVar(&samples, "samples", -1, "override fuzzy_sample_count (-1 keeps the tuning value)")
	flag.IntVar(&ticks, "ticks", 3, "hearing scan ticks")
	flag.BoolVar(&verbose, "v", false, "log engine diagnostics and below-threshold sounds")
	flag.Parse()

	if repeat <= 0 {
		fmt.Println("error: -repeat must be > 0")
		return
	}
	if ticks < 0 {
		fmt.Println("error: -ticks must be >= 0")
		return
	}
	sc, ok := scene.Preset(sceneName)
	if !ok {
		fmt.Printf("error: unsupported scene %q (supported: %s)\n", sceneName, strings.Join(scene.PresetNames(), ", "))
		return
	}

	settings, err := loadSettings(tuningPath, samples)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if dumpPath != "" {
		if err := config.FromSettings(settings).Save(dumpPath); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Printf("wrote %s\n", dumpPath)
		return
	}

	if !verbose {
		monitoring.SetLogger(nil)
	}

	grid := navgrid.New(navgrid.DefaultConfig(), sc)
	eng, err := acoustics.NewEngine(sc,
		acoustics.WithSettings(settings),
		acoustics.WithPathSolver(grid),
	)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	fmt.Printf("=== Acoustic Occlusion Report ===\n")
	fmt.Printf("scene=%s objects=%d repeat=%d ticks=%d settings_hash=%016x\n",
		sceneName, len(sc.Objects()), repeat, ticks, settings.Hash())
	fmt.Printf("tuning: fuzzy_samples=%d fuzzy_radius=%.2f traversal=%t cache=%t cache_ttl=%s\n\n",
		settings.FuzzySampleCount, settings.FuzzyRadius, settings.EnableTraversalAssist,
		settings.CacheEnabled, settings.CacheTTL)

	var runs []probeStats
	for pass := 0; pass < repeat; pass++ {
		runs = runProbes(eng, grid, presetProbes[sceneName])
	}
	for _, ps := range runs {
		printProbe(ps)
	}

	bank := audiofx.NewBank(audiofx.SampleRate)
	log := hearing.NewEventLog(verbose)
	scanner, err := buildHearing(eng, bank, log, presetEmitters[sceneName], presetListeners[sceneName])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for tick := 1; tick <= ticks; tick++ {
		scanner.Scan(tick)
	}

	fmt.Println("=== Hearing Pass ===")
	fmt.Print(log.Format())
	fmt.Print(log.Summary(ticks, scanner.Stats()))
	fmt.Printf("mix_rms_100ms=%.4f chains=%d playing=%d\n\n",
		mixLevel(bank, audiofx.SampleRate.N(100*time.Millisecond)), bank.Len(), bank.Playing())

	printEngineStats(eng.Stats())
}

// loadSettings applies an optional tuning file and the sample-count flag to
// the defaults.
func loadSettings(path string, samples int) (acoustics.Settings, error) {
	tc := config.EmptyTuningConfig()
	if path != "" {
		loaded, err := config.LoadTuningConfig(path)
		if err != nil {
			return acoustics.Settings{}, err
		}
		tc = loaded
	}
	if samples >= 0 {
		tc.FuzzySampleCount = &samples
	}
	return tc.Settings()
}

func runProbes(eng *acoustics.Engine, grid *navgrid.Grid, probes []probe) []probeStats {
	out := make([]probeStats, 0, len(probes))
	for _, p := range probes {
		ps := probeStats{probe: p, result: eng.ComputeTransmission(p.source, p.listener)}
		if ps.result.OccluderCount > 0 && ps.result.HasTraversablePath {
			ps.path = len(grid.FindPath(p.source, p.listener, false))
		}
		out = append(out, ps)
	}
	return out
}

func buildHearing(eng *acoustics.Engine, bank *audiofx.Bank, log *hearing.EventLog, emitters []emitterSetup, ear r3.Vec) (*hearing.Scanner, error) {
	reg := hearing.NewRegistry()
	for _, em := range emitters {
		tone, err := generators.SineTone(audiofx.SampleRate, em.toneHz)
		if err != nil {
			return nil, fmt.Errorf("tone for %s: %w", em.label, err)
		}
		id := reg.Add(em.label, em.pos, em.loudness)
		bank.Attach(id, tone)
	}
	s := hearing.NewScanner(eng, reg, hearing.WithEffects(bank), hearing.WithEventLog(log))
	s.RegisterListener("player", ear, hearing.DrivesEffects())
	return s, nil
}

// mixLevel pulls n samples from s and returns the left-channel RMS.
func mixLevel(s beep.Streamer, n int) float64 {
	if n <= 0 {
		return 0
	}
	buf := make([][2]float64, n)
	got, _ := s.Stream(buf)
	if got == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range buf[:got] {
		sum += v[0] * v[0]
	}
	return math.Sqrt(sum / float64(got))
}

func printProbe(ps probeStats) {
	r := ps.result
	fmt.Printf("--- Probe %s ---\n", ps.probe.name)
	fmt.Printf("endpoints: source=%s listener=%s distance=%.2f\n",
		fmtVec(ps.probe.source), fmtVec(ps.probe.listener), r3.Norm(r3.Sub(ps.probe.listener, ps.probe.source)))
	fmt.Printf("transmission=%.3f occluders=%d trackbacks=%d sigma=%.3f\n",
		r.Transmission, r.OccluderCount, r.Trackbacks, r.TransmissionStdDev)
	fmt.Printf("echo=%s traversal=%s\n", echoString(r), traversalString(r, ps.path))
	fmt.Println()
}

func echoString(r acoustics.AudioPathResult) string {
	if !r.EchoEnabled {
		return "off"
	}
	return fmt.Sprintf("on(strength=%.2f)", r.EchoStrength)
}

func traversalString(r acoustics.AudioPathResult, waypoints int) string {
	switch {
	case r.OccluderCount == 0:
		return "direct"
	case !r.HasTraversablePath:
		return "none"
	default:
		return fmt.Sprintf("detour=%.2f fidelity=%.2f waypoints=%d", r.PathDetourRatio, r.PathFidelity, waypoints)
	}
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.1f,%.1f,%.1f)", v.X, v.Y, v.Z)
}

func printEngineStats(s acoustics.Stats) {
	fmt.Println("=== Engine Stats ===")
	fmt.Printf("queries=%d trivial=%d ray_queries=%d path_queries=%d fuzzy_runs=%d topology_bumps=%d\n",
		s.Queries, s.Trivial, s.RayQueries, s.PathQueries, s.FuzzyRuns, s.TopologyBump)
	fmt.Printf("cache: hits=%d misses=%d hit_rate=%s expired=%d overflows=%d invalidations=%d entries=%d\n",
		s.Cache.Hits, s.Cache.Misses, hitRate(s.Cache), s.Cache.Expired, s.Cache.Overflows,
		s.Cache.Invalidations, s.Cache.Entries)
}

func hitRate(c acoustics.CacheStats) string {
	total := c.Hits + c.Misses
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(c.Hits)/float64(total)*100)
}
