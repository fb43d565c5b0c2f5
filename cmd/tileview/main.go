package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"

	"tilegen/internal/config"
	"tilegen/internal/display"
	"tilegen/internal/falloff"
	"tilegen/internal/graphics"
	"tilegen/internal/meshing"
	"tilegen/internal/pipeline"
	"tilegen/internal/profiling"
	"tilegen/internal/tile"
)

func init() {
	runtime.LockOSThread()
}

const slowFrame = 50 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "path to a JSON terrain config")
	radius := flag.Int("radius", 1, "tiles drawn around the origin in each direction")
	mode := flag.String("mode", "mesh", "initial draw mode: noise, color or mesh")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(logger, *configPath, *mode, *radius); err != nil {
		closer.Fatalln(err)
	}
	closer.Close()
}

// run owns the GL context, so GL teardown is deferred here on the locked
// thread. closer only stops the pipeline.
func run(logger *slog.Logger, configPath, mode string, radius int) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	drawMode, err := display.ParseDrawMode(mode)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow(1280, 800)
	if err != nil {
		return err
	}
	defer window.Destroy()

	renderer, err := graphics.NewTerrainRenderer(float32(cfg.ChunkSize - 1))
	if err != nil {
		return err
	}
	defer renderer.Dispose()

	v := &viewer{
		log:      logger,
		store:    config.NewStore(cfg),
		cache:    falloff.NewCache(),
		renderer: renderer,
		cam:      graphics.NewCamera(window.GetFramebufferSize()),
		mode:     drawMode,
		radius:   radius,
	}
	gen, err := v.newGenerator(cfg)
	if err != nil {
		return err
	}
	v.p = pipeline.New(gen, pipeline.Options{Workers: cfg.EffectiveWorkers(), Logger: logger})
	closer.Bind(v.p.Close)

	setupInputHandlers(window, v)
	v.regenerate()

	for !window.ShouldClose() {
		profiling.Reset()
		start := time.Now()

		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
		if v.store.Version() != v.seen {
			v.regenerate()
		}
		func() { defer profiling.Track("pipeline.DrainCompleted")(); v.p.DrainCompleted() }()
		renderer.Render(v.cam)
		func() { defer profiling.Track("glfw.SwapBuffers")(); window.SwapBuffers() }()

		if dt := time.Since(start); dt > slowFrame {
			logger.Warn("slow frame", "dt", dt.Round(time.Millisecond), "top", profiling.TopN(4))
		}
	}
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}

// viewer is owned by the main (GL) goroutine; pipeline callbacks run there
// during DrainCompleted.
type viewer struct {
	log      *slog.Logger
	store    *config.Store
	cache    *falloff.Cache
	p        *pipeline.Pipeline
	renderer *graphics.TerrainRenderer
	cam      *graphics.Camera
	mode     display.DrawMode
	radius   int

	seen   uint64
	lod    int
	epoch  int
	cancel context.CancelFunc
}

func (v *viewer) newGenerator(cfg config.Terrain) (*tile.Generator, error) {
	settings, err := cfg.TileSettings()
	if err != nil {
		return nil, err
	}
	return tile.NewGenerator(settings, v.cache), nil
}

func (v *viewer) setMode(m display.DrawMode) {
	if m == v.mode {
		return
	}
	v.mode = m
	v.regenerate()
}

// regenerate swaps in a generator for the current settings and re-requests
// every tile. Work for earlier settings is cancelled and late results ignored.
func (v *viewer) regenerate() {
	v.seen = v.store.Version()
	cfg := v.store.Get()
	gen, err := v.newGenerator(cfg)
	if err != nil {
		v.log.Error("settings", "err", err)
		return
	}
	v.p.SetGenerator(gen)
	v.lod = cfg.LevelOfDetail

	if v.cancel != nil {
		v.cancel()
	}
	var ctx context.Context
	ctx, v.cancel = context.WithCancel(context.Background())
	v.epoch++
	epoch := v.epoch

	v.renderer.Clear()
	v.log.Info("regenerate", "seed", cfg.Seed, "lod", cfg.LevelOfDetail, "falloff", cfg.UseFalloff, "mode", v.mode)
	for ty := -v.radius; ty <= v.radius; ty++ {
		for tx := -v.radius; tx <= v.radius; tx++ {
			slot := v.renderer.At(tx, ty)
			v.p.RequestMapData(ctx, gen.Origin(tx, ty), func(m tile.MapData) {
				if epoch != v.epoch {
					return
				}
				v.onMapData(ctx, epoch, slot, m)
			})
		}
	}
}

func (v *viewer) onMapData(ctx context.Context, epoch int, slot display.Display, m tile.MapData) {
	if v.mode != display.Mesh {
		if err := display.DrawTile(slot, v.mode, v.p.Generator(), m, v.lod); err != nil {
			v.log.Error("draw tile", "err", err)
		}
		return
	}
	v.p.RequestMeshData(ctx, m, v.lod, func(mesh meshing.MeshData) {
		if epoch != v.epoch {
			return
		}
		if err := slot.DrawMesh(mesh, display.TextureFromColorMap(m.Colors, m.Size, m.Size)); err != nil {
			v.log.Error("draw mesh", "err", err)
		}
	})
}
