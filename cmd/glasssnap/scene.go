package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hjson/hjson-go/v4"

	"github.com/gogpu/glass"
)

// Scene describes one overlay snapshot. Scene files are Hjson, so plain JSON
// works as well as commented files with unquoted keys. Quote string values
// that share a line with other fields:
//
//	{
//	  width: 1200, height: 900
//	  elements: [
//	    // bottom dock
//	    { id: "dock", x: 800, y: 810, width: 600, height: 60, radius: 20, intensity: 1.4 }
//	  ]
//	  cursor: { x: 300, y: 200, active: true }
//	}
type Scene struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`

	// Background is an image path drawn under the overlay. Relative paths
	// are resolved by the caller.
	Background string `json:"background"`

	Elements []SceneElement `json:"elements"`
	Cursor   *SceneCursor   `json:"cursor"`
}

// SceneElement is an element with its center at (X, Y).
type SceneElement struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Radius    float64 `json:"radius"`
	Intensity float64 `json:"intensity"`
}

// SceneCursor places the spotlight.
type SceneCursor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Size   float64 `json:"size"`
	Active bool    `json:"active"`
}

var errEmptyID = errors.New("element without id")

// demoScene is rendered when no scene file is given.
func demoScene() *Scene {
	return &Scene{
		Width: 1200, Height: 900, PixelRatio: 1,
		Elements: []SceneElement{
			{ID: "dock", X: 800, Y: 810, Width: 600, Height: 60, Radius: 20, Intensity: 1.4},
			{ID: "toolbar", X: 600, Y: 40, Width: 1100, Height: 48, Radius: 12, Intensity: 1},
			{ID: "card", X: 360, Y: 420, Width: 420, Height: 280, Radius: 28, Intensity: 0.8},
		},
		Cursor: &SceneCursor{X: 820, Y: 380, Size: glass.DefaultCursorSize, Active: true},
	}
}

func loadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScene(data)
}

func parseScene(data []byte) (*Scene, error) {
	var sc Scene
	if err := hjson.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := sc.normalize(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// normalize fills defaults and checks ids.
func (sc *Scene) normalize() error {
	if sc.Width == 0 && sc.Height == 0 {
		sc.Width, sc.Height = 1280, 720
	}
	if sc.PixelRatio == 0 {
		sc.PixelRatio = 1
	}
	seen := make(map[string]bool, len(sc.Elements))
	for i, el := range sc.Elements {
		if el.ID == "" {
			return fmt.Errorf("scene element %d: %w", i, errEmptyID)
		}
		if seen[el.ID] {
			return fmt.Errorf("scene element %d: duplicate id %q", i, el.ID)
		}
		seen[el.ID] = true
		if el.Intensity == 0 {
			sc.Elements[i].Intensity = 1
		}
	}
	return nil
}

func (el SceneElement) element() glass.Element {
	return glass.Element{
		ID: el.ID,
		X:  el.X, Y: el.Y,
		Width: el.Width, Height: el.Height,
		Radius:    el.Radius,
		Intensity: el.Intensity,
	}
}
