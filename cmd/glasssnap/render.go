package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"golang.org/x/image/draw"

	// Background decoders.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	_ "image/jpeg"

	"github.com/gogpu/glass"
	"github.com/gogpu/glass/surface"
)

const frameStep = 16 * time.Millisecond

// renderScene runs the engine headless on the software surface for frames
// ticks and returns the last overlay frame.
func renderScene(sc *Scene, frames int) (*image.NRGBA, error) {
	sched := glass.NewManualScheduler(time.Unix(0, 0))
	opts := []glass.Option{
		glass.WithBackend(surface.SoftwareName),
		glass.WithSoftwareFallback(true),
		glass.WithScheduler(sched),
		glass.WithViewport(sc.Width, sc.Height, sc.PixelRatio),
	}
	if sc.Cursor != nil {
		opts = append(opts, glass.WithCursorSize(sc.Cursor.Size))
	}
	e, err := glass.Open(opts...)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	for _, el := range sc.Elements {
		e.RegisterElement(el.element())
	}
	if sc.Cursor != nil {
		e.MoveCursor(sc.Cursor.X, sc.Cursor.Y)
		e.SetCursorActive(sc.Cursor.Active)
	} else {
		e.SetCursorActive(false)
	}

	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		sched.Advance(frameStep)
	}

	fr, ok := e.Surface().(surface.FrameReader)
	if !ok {
		return nil, fmt.Errorf("surface %s has no readable frame", e.Surface().Name())
	}
	return fr.ReadFrame(nil), nil
}

// compose draws the overlay over the background, scaled to its size.
func compose(bg image.Image, frame *image.NRGBA) image.Image {
	if bg == nil {
		return frame
	}
	dst := image.NewRGBA(image.Rect(0, 0, bg.Bounds().Dx(), bg.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), bg, bg.Bounds().Min, draw.Src)
	surface.Composite(dst, frame)
	return dst
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
