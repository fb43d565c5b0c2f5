package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xlab/closer"

	"tilegen/internal/config"
	"tilegen/internal/display"
	"tilegen/internal/falloff"
	"tilegen/internal/meshing"
	"tilegen/internal/pipeline"
	"tilegen/internal/profiling"
	"tilegen/internal/tile"
)

func main() {
	defaults := config.Default()

	// Flag names double as Merge keys
	configPath := flag.String("config", "", "path to a JSON terrain config")
	outDir := flag.String("out", "out", "output directory")
	format := flag.String("format", "png", "texture format: png, bmp or tiff")
	mode := flag.String("mode", "color", "draw mode: noise, color or mesh")
	tiles := flag.Int("tiles", 1, "generate a tiles x tiles grid centred on the origin")
	upscale := flag.Int("upscale", 1, "nearest-neighbour texture upscale factor")
	timeout := flag.Duration("timeout", time.Minute, "give up after this long")
	verbose := flag.Bool("v", false, "debug logging")

	cfg := defaults
	flag.IntVar(&cfg.ChunkSize, "size", defaults.ChunkSize, "tile edge length in cells")
	flag.Int64Var(&cfg.Seed, "seed", defaults.Seed, "noise seed")
	flag.Float64Var(&cfg.NoiseScale, "scale", defaults.NoiseScale, "noise scale")
	flag.IntVar(&cfg.Octaves, "octaves", defaults.Octaves, "noise octaves")
	flag.Float64Var(&cfg.Persistence, "persistence", defaults.Persistence, "amplitude multiplier per octave")
	flag.Float64Var(&cfg.Lacunarity, "lacunarity", defaults.Lacunarity, "frequency multiplier per octave")
	flag.StringVar(&cfg.Normalize, "normalize", defaults.Normalize, "height normalisation: local or global")
	flag.StringVar(&cfg.NoiseSource, "noise", defaults.NoiseSource, "noise source: simplex or perlin")
	flag.BoolVar(&cfg.UseFalloff, "falloff", defaults.UseFalloff, "apply the square falloff mask")
	flag.Float64Var(&cfg.HeightMultiplier, "height", defaults.HeightMultiplier, "mesh height multiplier")
	flag.IntVar(&cfg.LevelOfDetail, "lod", defaults.LevelOfDetail, "mesh level of detail (0..6)")
	flag.StringVar(&cfg.ClassifyPolicy, "policy", defaults.ClassifyPolicy, "region policy: last-match or first-match")
	flag.IntVar(&cfg.Workers, "workers", defaults.Workers, "worker goroutines (0 = one per CPU)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if *configPath != "" {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		fromFile, err := config.Load(*configPath)
		if err != nil {
			logger.Error("config", "err", err)
			os.Exit(1)
		}
		config.Merge(&cfg, fromFile, explicit)
	}
	cfg.Clamp()

	drawMode, err := display.ParseDrawMode(*mode)
	if err != nil {
		logger.Error("flags", "err", err)
		os.Exit(1)
	}
	settings, err := cfg.TileSettings()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}

	gen := tile.NewGenerator(settings, falloff.NewCache())
	p := pipeline.New(gen, pipeline.Options{Workers: cfg.EffectiveWorkers(), Logger: logger})
	closer.Bind(p.Close)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	closer.Bind(cancel)

	r := &run{
		ctx:     ctx,
		log:     logger,
		p:       p,
		mode:    drawMode,
		lod:     cfg.LevelOfDetail,
		outDir:  *outDir,
		format:  *format,
		upscale: *upscale,
	}
	start := time.Now()
	r.requestGrid(gen, *tiles)

	if err := r.wait(); err != nil {
		closer.Fatalln(err)
	}
	logger.Info("done",
		"tiles", r.written,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"stats", fmt.Sprintf("%+v", p.Stats()),
		"stages", profiling.TopN(6),
	)
	closer.Close()
}

type run struct {
	ctx     context.Context
	log     *slog.Logger
	p       *pipeline.Pipeline
	mode    display.DrawMode
	lod     int
	outDir  string
	format  string
	upscale int

	// only touched by the draining goroutine
	pending int
	written int
	err     error
}

// requestGrid asks for n*n tiles; odd n centres the grid on tile (0, 0).
func (r *run) requestGrid(gen *tile.Generator, n int) {
	if n < 1 {
		n = 1
	}
	lo := -(n - 1) / 2
	for ty := lo; ty < lo+n; ty++ {
		for tx := lo; tx < lo+n; tx++ {
			r.pending++
			r.p.RequestMapData(r.ctx, gen.Origin(tx, ty), func(m tile.MapData) {
				r.onMapData(tx, ty, m)
			})
		}
	}
}

func (r *run) onMapData(tx, ty int, m tile.MapData) {
	out, err := display.NewFileDisplay(r.outDir, fmt.Sprintf("tile_%d_%d", tx, ty), r.format, r.upscale)
	if err != nil {
		r.fail(err)
		return
	}
	if r.mode != display.Mesh {
		r.finish(display.DrawTile(out, r.mode, r.p.Generator(), m, r.lod), out.TexturePath())
		return
	}
	// Mesh mode chains a second request; the tile stays pending.
	r.p.RequestMeshData(r.ctx, m, r.lod, func(mesh meshing.MeshData) {
		r.finish(out.DrawMesh(mesh, display.TextureFromColorMap(m.Colors, m.Size, m.Size)), out.MeshPath())
	})
}

func (r *run) finish(err error, path string) {
	if err != nil {
		r.fail(err)
		return
	}
	r.pending--
	r.written++
	r.log.Debug("wrote tile", "path", path)
}

func (r *run) fail(err error) {
	r.pending--
	if r.err == nil {
		r.err = err
	}
}

// wait plays the owning thread: it drains completed results until every
// requested tile is written.
func (r *run) wait() error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for r.pending > 0 {
		select {
		case <-r.ctx.Done():
			return fmt.Errorf("%d tiles unfinished: %w", r.pending, r.ctx.Err())
		case <-ticker.C:
			r.p.DrainCompleted()
		}
	}
	return r.err
}
