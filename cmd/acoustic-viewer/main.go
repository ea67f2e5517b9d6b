package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Acoustic-Sense/internal/config"
	"github.com/Garsondee/Acoustic-Sense/internal/viewer"
)

func main() {
	var preset string
	var tuningPath string
	flag.StringVar(&preset, "scene", "doorway", "starting preset scene")
	flag.StringVar(&tuningPath, "tuning", "", "JSON tuning overrides applied to the defaults")
	flag.Parse()

	tc := config.EmptyTuningConfig()
	if tuningPath != "" {
		loaded, err := config.LoadTuningConfig(tuningPath)
		if err != nil {
			log.Fatal(err)
		}
		tc = loaded
	}
	settings, err := tc.Settings()
	if err != nil {
		log.Fatal(err)
	}

	v, err := viewer.New(viewer.WithPreset(preset), viewer.WithSettings(settings))
	if err != nil {
		log.Fatal(err)
	}
	ebiten.SetWindowTitle("Acoustic Sense")
	ebiten.SetWindowSize(v.Size())
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
