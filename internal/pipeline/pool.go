package pipeline

import (
	"runtime"
	"sync"
)

// Job is a unit of work run by the pool.
type Job func()

// WorkerPool runs jobs on a fixed number of goroutines. The backlog is
// unbounded so submission never blocks.
type WorkerPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	backlog []Job
	closed  bool
	running int

	workers int
	wg      sync.WaitGroup

	// onPanic is called with the recovered value when a job panics.
	onPanic func(worker int, r any)
}

// NewWorkerPool creates a pool with the given number of workers; values
// below one use runtime.NumCPU().
func NewWorkerPool(workers int, onPanic func(worker int, r any)) *WorkerPool {
	if workers < 1 {
		workers = max(runtime.NumCPU(), 1)
	}
	pool := &WorkerPool{workers: workers, onPanic: onPanic}
	pool.cond = sync.NewCond(&pool.mu)

	for i := range workers {
		pool.wg.Add(1)
		go pool.worker(i)
	}
	return pool
}

// SubmitJob queues a job. It returns false once the pool is shut down.
func (p *WorkerPool) SubmitJob(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.backlog = append(p.backlog, job)
	p.cond.Signal()
	return true
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.backlog) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		job := p.backlog[0]
		p.backlog[0] = nil
		p.backlog = p.backlog[1:]
		p.running++
		p.mu.Unlock()

		p.run(id, job)

		p.mu.Lock()
		p.running--
		p.mu.Unlock()
	}
}

func (p *WorkerPool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(id, r)
		}
	}()
	job()
}

// Shutdown stops accepting jobs, discards the backlog and waits for running
// jobs to return. It reports how many queued jobs were discarded.
func (p *WorkerPool) Shutdown() int {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0
	}
	p.closed = true
	discarded := len(p.backlog)
	p.backlog = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	return discarded
}

// QueueLength returns the number of jobs waiting for a worker.
func (p *WorkerPool) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.backlog)
}

// Running returns the number of jobs currently executing.
func (p *WorkerPool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Workers returns the pool size.
func (p *WorkerPool) Workers() int { return p.workers }
