// Command glasssnap renders glass overlay scenes to PNG without a GPU.
//
// Usage:
//
//	glasssnap [flags] [scene.hjson ...]
//
// With no scene arguments a built-in demo scene is rendered to -o. With
// several scenes each is written to -outdir as <scene>.png. Scenes render
// concurrently.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/glass"
)

func main() {
	var (
		output  = flag.String("o", "glass.png", "output file for a single scene")
		outdir  = flag.String("outdir", ".", "output directory when rendering several scenes")
		bg      = flag.String("background", "", "image drawn under the overlay (overrides the scene)")
		frames  = flag.Int("frames", 60, "frames to run before capturing, lets the spotlight settle")
		jobs    = flag.Int("j", runtime.NumCPU(), "scenes rendered in parallel")
		verbose = flag.Bool("v", false, "log engine activity")
	)
	flag.Parse()

	if *verbose {
		glass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	jobsList, err := plan(flag.Args(), *output, *outdir)
	if err != nil {
		log.Fatal(err)
	}

	var g errgroup.Group
	g.SetLimit(max(*jobs, 1))
	for _, j := range jobsList {
		g.Go(func() error {
			return snap(j, *bg, *frames)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

type job struct {
	scene string // empty for the demo scene
	out   string
}

// plan maps scene arguments to output paths.
func plan(args []string, output, outdir string) ([]job, error) {
	switch len(args) {
	case 0:
		return []job{{out: output}}, nil
	case 1:
		return []job{{scene: args[0], out: output}}, nil
	}
	jobs := make([]job, 0, len(args))
	seen := make(map[string]string, len(args))
	for _, a := range args {
		base := strings.TrimSuffix(filepath.Base(a), filepath.Ext(a))
		out := filepath.Join(outdir, base+".png")
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%s and %s both write %s", prev, a, out)
		}
		seen[out] = a
		jobs = append(jobs, job{scene: a, out: out})
	}
	return jobs, nil
}

func snap(j job, bgOverride string, frames int) error {
	sc := demoScene()
	if j.scene != "" {
		var err error
		if sc, err = loadScene(j.scene); err != nil {
			return fmt.Errorf("%s: %w", j.scene, err)
		}
	}

	bgPath := bgOverride
	if bgPath == "" && sc.Background != "" {
		bgPath = sc.Background
		if j.scene != "" && !filepath.IsAbs(bgPath) {
			bgPath = filepath.Join(filepath.Dir(j.scene), bgPath)
		}
	}
	var bg image.Image
	if bgPath != "" {
		var err error
		if bg, err = loadImage(bgPath); err != nil {
			return err
		}
	}

	frame, err := renderScene(sc, frames)
	if err != nil {
		return fmt.Errorf("render %s: %w", name(j), err)
	}
	if err := savePNG(j.out, compose(bg, frame)); err != nil {
		return err
	}
	b := frame.Bounds()
	log.Printf("%s -> %s (%dx%d, %d elements)", name(j), j.out, b.Dx(), b.Dy(), len(sc.Elements))
	return nil
}

func name(j job) string {
	if j.scene == "" {
		return "demo"
	}
	return j.scene
}
