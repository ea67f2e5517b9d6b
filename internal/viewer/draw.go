package viewer

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/scene"
)

// worldToScreen maps floor coordinates (X, Z) to pixels.
func worldToScreen(x, z float64) (float32, float32) {
	return float32(margin + x*pxPerUnit), float32(margin + z*pxPerUnit)
}

// screenToWorld maps pixels to floor coordinates and reports whether the
// point lies on the floor.
func screenToWorld(px, py int) (float64, float64, bool) {
	x := (float64(px) - margin) / pxPerUnit
	z := (float64(py) - margin) / pxPerUnit
	inside := x >= 0 && x <= scene.PresetWidth && z >= 0 && z <= scene.PresetDepth
	return x, z, inside
}

// heatColor blends from blockedColor at 0 to clearColor at 1.
func heatColor(t float64) color.RGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	t = math.Min(t, 1)
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return color.RGBA{
		R: lerp(blockedColor.R, clearColor.R),
		G: lerp(blockedColor.G, clearColor.G),
		B: lerp(blockedColor.B, clearColor.B),
		A: 255,
	}
}

// objectAt returns the last live object whose XZ footprint contains the
// point, so later additions win.
func objectAt(sc *scene.Scene, x, z float64) *scene.Object {
	objs := sc.Objects()
	for i := len(objs) - 1; i >= 0; i-- {
		o := objs[i]
		if !o.Alive() {
			continue
		}
		b := o.Bounds()
		if x >= b.Min.X && x <= b.Max.X && z >= b.Min.Z && z <= b.Max.Z {
			return o
		}
	}
	return nil
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.1f,%.1f,%.1f)", v.X, v.Y, v.Z)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
