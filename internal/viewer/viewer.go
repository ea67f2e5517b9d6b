// Package viewer is the interactive top-down view of a preset scene: a
// transmission heatmap from a movable source, a probe between source and
// listener, and the corridor path the traversal assist found.
package viewer

import (
	"fmt"
	"image/color"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/acoustics"
	"github.com/Garsondee/Acoustic-Sense/internal/monitoring"
	"github.com/Garsondee/Acoustic-Sense/internal/navgrid"
	"github.com/Garsondee/Acoustic-Sense/internal/scene"
)

const (
	pxPerUnit  = 24.0
	margin     = 20
	hudHeight  = 150
	heatCell   = 1.0 // world units per heatmap cell
	earHeight  = 1.2
	lineHeight = 15
)

var (
	bgColor       = color.RGBA{R: 12, G: 14, B: 18, A: 255}
	blockedColor  = color.RGBA{R: 24, G: 20, B: 60, A: 255}
	clearColor    = color.RGBA{R: 250, G: 214, B: 96, A: 255}
	solidColor    = color.RGBA{R: 160, G: 164, B: 172, A: 220}
	triggerColor  = color.RGBA{R: 90, G: 200, B: 220, A: 200}
	pathColor     = color.RGBA{R: 80, G: 230, B: 140, A: 255}
	directClear   = color.RGBA{R: 240, G: 240, B: 240, A: 200}
	directBlocked = color.RGBA{R: 230, G: 70, B: 60, A: 220}
	sourceColor   = color.RGBA{R: 255, G: 140, B: 40, A: 255}
	listenerColor = color.RGBA{R: 70, G: 200, B: 255, A: 255}
	textColor     = color.RGBA{R: 210, G: 220, B: 210, A: 255}
)

// Viewer implements ebiten.Game.
type Viewer struct {
	presets   []string
	presetIdx int

	sc     *scene.Scene
	grid   *navgrid.Grid
	engine *acoustics.Engine

	base      acoustics.Settings
	fuzzy     bool
	traversal bool

	source   r3.Vec
	listener r3.Vec

	cols, rows int
	heat       []float64
	dirty      bool
	probe      acoustics.AudioPathResult
	path       []r3.Vec

	face     text.Face
	status   string
	prevKeys map[ebiten.Key]bool
	copyText func(string) error

	width, height int
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithPreset selects the starting scene.
func WithPreset(name string) Option {
	return func(v *Viewer) {
		for i, p := range v.presets {
			if p == name {
				v.presetIdx = i
			}
		}
	}
}

// WithSettings replaces acoustics.DefaultSettings as the base tuning.
func WithSettings(s acoustics.Settings) Option {
	return func(v *Viewer) { v.base = s }
}

// New builds a viewer on the first preset unless WithPreset says otherwise.
func New(opts ...Option) (*Viewer, error) {
	v := &Viewer{
		presets:  scene.PresetNames(),
		base:     acoustics.DefaultSettings(),
		face:     text.NewGoXFace(basicfont.Face7x13),
		prevKeys: map[ebiten.Key]bool{},
		copyText: clipboard.WriteAll,
		cols:     int(scene.PresetWidth / heatCell),
		rows:     int(scene.PresetDepth / heatCell),
		width:    int(scene.PresetWidth*pxPerUnit) + 2*margin,
		height:   int(scene.PresetDepth*pxPerUnit) + 2*margin + hudHeight,
	}
	for _, o := range opts {
		o(v)
	}
	v.fuzzy = v.base.FuzzySampleCount > 0
	v.traversal = v.base.EnableTraversalAssist
	v.heat = make([]float64, v.cols*v.rows)
	v.source = r3.Vec{X: 10, Y: earHeight, Z: scene.PresetDepth / 2}
	v.listener = r3.Vec{X: 30, Y: earHeight, Z: scene.PresetDepth / 2}
	if err := v.loadPreset(); err != nil {
		return nil, err
	}
	return v, nil
}

// PresetName returns the scene currently shown.
func (v *Viewer) PresetName() string { return v.presets[v.presetIdx] }

func (v *Viewer) loadPreset() error {
	sc, ok := scene.Preset(v.PresetName())
	if !ok {
		return fmt.Errorf("unknown preset %q", v.PresetName())
	}
	grid := navgrid.New(navgrid.DefaultConfig(), sc)
	eng, err := acoustics.NewEngine(sc,
		acoustics.WithSettings(v.effectiveSettings()),
		acoustics.WithPathSolver(grid),
	)
	if err != nil {
		return fmt.Errorf("load preset %s: %w", v.PresetName(), err)
	}
	v.sc, v.grid, v.engine = sc, grid, eng
	v.dirty = true
	monitoring.Logf("viewer: loaded preset %s (%d objects)", v.PresetName(), len(sc.Objects()))
	return nil
}

// effectiveSettings is the base tuning with the fuzzy and traversal toggles
// applied.
func (v *Viewer) effectiveSettings() acoustics.Settings {
	s := v.base
	if !v.fuzzy {
		s.FuzzySampleCount = 0
	} else if s.FuzzySampleCount == 0 {
		s.FuzzySampleCount = acoustics.DefaultSettings().FuzzySampleCount
	}
	s.EnableTraversalAssist = v.traversal
	return s
}

func (v *Viewer) applySettings() {
	if err := v.engine.SetSettings(v.effectiveSettings()); err != nil {
		v.status = "settings rejected: " + err.Error()
		return
	}
	v.dirty = true
}

func (v *Viewer) toggleFuzzy() {
	v.fuzzy = !v.fuzzy
	v.applySettings()
	v.status = fmt.Sprintf("fuzzy sampling %s", onOff(v.fuzzy))
}

func (v *Viewer) toggleTraversal() {
	v.traversal = !v.traversal
	v.applySettings()
	v.status = fmt.Sprintf("traversal assist %s", onOff(v.traversal))
}

func (v *Viewer) rebuildGrid() {
	v.grid.Rebuild(v.sc)
	v.dirty = true
	v.status = fmt.Sprintf("navgrid rebuilt (version %d)", v.grid.GridVersion())
}

func (v *Viewer) nextPreset() error {
	v.presetIdx = (v.presetIdx + 1) % len(v.presets)
	if err := v.loadPreset(); err != nil {
		return err
	}
	v.status = "scene " + v.PresetName()
	return nil
}

// destroyAt destroys the topmost object whose footprint covers (x, z) and
// rebuilds the navgrid so paths and cached results follow.
func (v *Viewer) destroyAt(x, z float64) bool {
	o := objectAt(v.sc, x, z)
	if o == nil {
		return false
	}
	o.Destroy()
	v.sc.Sweep()
	v.grid.Rebuild(v.sc)
	v.dirty = true
	v.status = "destroyed " + o.Name
	return true
}

func (v *Viewer) copyReport() {
	if err := v.copyText(v.Report()); err != nil {
		v.status = "clipboard: " + err.Error()
		return
	}
	v.status = "probe report copied"
}

func (v *Viewer) setSource(p r3.Vec) {
	if p != v.source {
		v.source = p
		v.dirty = true
	}
}

func (v *Viewer) setListener(p r3.Vec) {
	if p != v.listener {
		v.listener = p
		v.dirty = true
	}
}

// refresh recomputes the heatmap from the source and the source/listener
// probe.
func (v *Viewer) refresh() {
	for row := 0; row < v.rows; row++ {
		for col := 0; col < v.cols; col++ {
			at := r3.Vec{X: (float64(col) + 0.5) * heatCell, Y: earHeight, Z: (float64(row) + 0.5) * heatCell}
			v.heat[row*v.cols+col] = v.engine.ComputeTransmission(v.source, at).Transmission
		}
	}
	v.probe = v.engine.ComputeTransmission(v.source, v.listener)
	v.path = nil
	if v.probe.OccluderCount > 0 && v.probe.HasTraversablePath {
		v.path = v.grid.FindPath(v.source, v.listener, true)
	}
	v.dirty = false
}

// Report is the probe summary shown in the HUD and copied by C.
func (v *Viewer) Report() string {
	r := v.probe
	st := v.engine.Stats()
	out := fmt.Sprintf("scene=%s source=%s listener=%s distance=%.2f\n",
		v.PresetName(), fmtVec(v.source), fmtVec(v.listener), r3.Norm(r3.Sub(v.listener, v.source)))
	out += fmt.Sprintf("transmission=%.3f occluders=%d trackbacks=%d sigma=%.3f\n",
		r.Transmission, r.OccluderCount, r.Trackbacks, r.TransmissionStdDev)
	echo := "off"
	if r.EchoEnabled {
		echo = fmt.Sprintf("on(strength=%.2f)", r.EchoStrength)
	}
	trav := "none"
	switch {
	case r.OccluderCount == 0:
		trav = "direct"
	case r.HasTraversablePath:
		trav = fmt.Sprintf("detour=%.2f fidelity=%.2f", r.PathDetourRatio, r.PathFidelity)
	}
	out += fmt.Sprintf("echo=%s traversal=%s\n", echo, trav)
	out += fmt.Sprintf("fuzzy=%s assist=%s cache_hits=%d cache_misses=%d ray_queries=%d\n",
		onOff(v.fuzzy), onOff(v.traversal), st.Cache.Hits, st.Cache.Misses, st.RayQueries)
	return out
}

func (v *Viewer) Update() error {
	if err := v.handleInput(); err != nil {
		return err
	}
	if v.dirty {
		v.refresh()
	}
	return nil
}

// handleInput processes edge-triggered keys and mouse placement.
func (v *Viewer) handleInput() error {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !v.prevKeys[k]
	}
	defer func() { v.prevKeys = currentKeys }()

	mx, my := ebiten.CursorPosition()
	wx, wz, inside := screenToWorld(mx, my)

	if pressed(ebiten.KeyF) {
		v.toggleFuzzy()
	}
	if pressed(ebiten.KeyT) {
		v.toggleTraversal()
	}
	if pressed(ebiten.KeyR) {
		v.rebuildGrid()
	}
	if pressed(ebiten.KeyC) {
		v.copyReport()
	}
	if pressed(ebiten.KeyX) && inside {
		v.destroyAt(wx, wz)
	}
	if pressed(ebiten.KeyTab) {
		if err := v.nextPreset(); err != nil {
			return err
		}
	}

	// Holding a button drags the endpoint.
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if inside && left {
		v.setSource(r3.Vec{X: wx, Y: earHeight, Z: wz})
	}
	if inside && right {
		v.setListener(r3.Vec{X: wx, Y: earHeight, Z: wz})
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	cell := float32(heatCell * pxPerUnit)
	for row := 0; row < v.rows; row++ {
		for col := 0; col < v.cols; col++ {
			x, y := worldToScreen(float64(col)*heatCell, float64(row)*heatCell)
			vector.FillRect(screen, x, y, cell, cell, heatColor(v.heat[row*v.cols+col]), false)
		}
	}

	for _, o := range v.sc.Objects() {
		if !o.Alive() {
			continue
		}
		b := o.Bounds()
		x0, y0 := worldToScreen(b.Min.X, b.Min.Z)
		x1, y1 := worldToScreen(b.Max.X, b.Max.Z)
		switch {
		case o.Trigger:
			vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, triggerColor, false)
		case o.Shape() == scene.ShapeSphere:
			vector.FillCircle(screen, (x0+x1)/2, (y0+y1)/2, (x1-x0)/2, solidColor, true)
		default:
			vector.FillRect(screen, x0, y0, max(x1-x0, 1), max(y1-y0, 1), solidColor, false)
		}
	}

	sx, sy := worldToScreen(v.source.X, v.source.Z)
	lx, ly := worldToScreen(v.listener.X, v.listener.Z)
	direct := directClear
	if v.probe.OccluderCount > 0 {
		direct = directBlocked
	}
	vector.StrokeLine(screen, sx, sy, lx, ly, 1.5, direct, true)
	for i := 1; i < len(v.path); i++ {
		ax, ay := worldToScreen(v.path[i-1].X, v.path[i-1].Z)
		bx, by := worldToScreen(v.path[i].X, v.path[i].Z)
		vector.StrokeLine(screen, ax, ay, bx, by, 2, pathColor, true)
	}
	vector.FillCircle(screen, sx, sy, 6, sourceColor, true)
	vector.FillCircle(screen, lx, ly, 6, listenerColor, true)

	v.drawHUD(screen)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	lines := append(splitLines(v.Report()),
		"[LMB] source  [RMB] listener  [F] fuzzy  [T] assist  [R] rebuild grid  [X] destroy  [Tab] scene  [C] copy",
		v.status,
	)
	y := float64(int(scene.PresetDepth*pxPerUnit) + 2*margin)
	for i, l := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(margin, y+float64(i*lineHeight))
		op.ColorScale.ScaleWithColor(textColor)
		text.Draw(screen, l, v.face, op)
	}
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}

// Size returns the window size the viewer lays out for.
func (v *Viewer) Size() (int, int) { return v.width, v.height }
