// Package pipeline computes tile data on background workers and hands the
// results back to the goroutine that owns the pipeline.
//
// Requests return immediately. Each finished result is queued together with
// its callback; the owner calls DrainCompleted periodically (once per frame
// or tick) and every callback runs there, exactly once, in the order results
// were queued. Map and mesh results travel on separate queues with no
// ordering between them.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"tilegen/internal/meshing"
	"tilegen/internal/tile"
)

var errClosed = errors.New("pipeline closed")

// Options configures a Pipeline.
type Options struct {
	// Workers bounds concurrent computations; below one means runtime.NumCPU().
	Workers int
	Logger  *slog.Logger
}

// Stats is a point-in-time view of the pipeline counters.
type Stats struct {
	Requested int64 // accepted requests
	Backlog   int   // waiting for a worker
	Running   int   // being computed
	Ready     int   // queued for the next drain
	Delivered int64 // callbacks invoked
	Dropped   int64 // cancelled or discarded
	Failed    int64 // jobs that panicked
}

// Pipeline is the tile data pipeline.
type Pipeline struct {
	gen    atomic.Pointer[tile.Generator]
	pool   *WorkerPool
	maps   *ResultQueue[tile.MapData]
	meshes *ResultQueue[meshing.MeshData]
	log    *slog.Logger

	requested atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// New starts a pipeline that generates tiles with gen.
func New(gen *tile.Generator, opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	p := &Pipeline{
		maps:   NewResultQueue[tile.MapData](),
		meshes: NewResultQueue[meshing.MeshData](),
		log:    log,
	}
	p.gen.Store(gen)
	p.pool = NewWorkerPool(opts.Workers, func(worker int, r any) {
		p.failed.Add(1)
		p.log.Error("tile job panicked", "worker", worker, "panic", r)
	})
	p.log.Debug("pipeline started", "workers", p.pool.Workers())
	return p
}

// Generator returns the generator new requests will use.
func (p *Pipeline) Generator() *tile.Generator {
	return p.gen.Load()
}

// SetGenerator replaces the generator for subsequent requests. Requests
// already accepted keep the generator they captured.
func (p *Pipeline) SetGenerator(gen *tile.Generator) {
	p.gen.Store(gen)
}

// RequestMapData computes the map data of the tile at origin in the
// background. callback runs during a later DrainCompleted unless ctx is
// cancelled first.
func (p *Pipeline) RequestMapData(ctx context.Context, origin mgl64.Vec2, callback func(tile.MapData)) {
	submit(p, ctx, p.maps, "map", func(g *tile.Generator) tile.MapData {
		return g.GenerateMapData(origin)
	}, callback)
}

// RequestMeshData triangulates already computed map data at lod in the
// background.
func (p *Pipeline) RequestMeshData(ctx context.Context, m tile.MapData, lod int, callback func(meshing.MeshData)) {
	submit(p, ctx, p.meshes, "mesh", func(g *tile.Generator) meshing.MeshData {
		return g.GenerateMeshData(m, lod)
	}, callback)
}

func submit[T any](p *Pipeline, ctx context.Context, q *ResultQueue[T], kind string, compute func(*tile.Generator) T, callback func(T)) {
	if ctx == nil {
		ctx = context.Background()
	}
	gen := p.gen.Load()

	accepted := p.pool.SubmitJob(func() {
		if ctx.Err() != nil {
			p.drop(kind, ctx.Err())
			return
		}
		result := compute(gen)
		// Stale results are dropped instead of delivered.
		if ctx.Err() != nil {
			p.drop(kind, ctx.Err())
			return
		}
		q.Push(callback, result)
	})
	if !accepted {
		p.drop(kind, errClosed)
		return
	}
	p.requested.Add(1)
}

func (p *Pipeline) drop(kind string, reason error) {
	p.dropped.Add(1)
	p.log.Debug("tile request dropped", "kind", kind, "reason", reason)
}

// DrainCompleted runs the callbacks of every result finished so far on the
// calling goroutine, map results first. Callbacks run without any pipeline
// lock held and may issue new requests. It returns the number delivered.
//
// Callbacks must not panic. If one does, the panic reaches the caller and
// the results not yet delivered stay queued for the next call.
func (p *Pipeline) DrainCompleted() int {
	n := deliver(p.maps, &p.delivered)
	n += deliver(p.meshes, &p.delivered)
	return n
}

// Stats returns the current counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Requested: p.requested.Load(),
		Backlog:   p.pool.QueueLength(),
		Running:   p.pool.Running(),
		Ready:     p.maps.Len() + p.meshes.Len(),
		Delivered: p.delivered.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close stops the workers. Queued requests and undelivered results are
// discarded; later requests are dropped.
func (p *Pipeline) Close() {
	discarded := p.pool.Shutdown()
	discarded += len(p.maps.Drain()) + len(p.meshes.Drain())
	if discarded > 0 {
		p.dropped.Add(int64(discarded))
	}
	p.log.Debug("pipeline closed", "discarded", discarded)
}
