package worker

import (
	"context"
	"sync"
)

// Job is one unit of pool work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result carries a job's outcome
type Result interface {
	GetError() error
}

// Pool fans jobs out to a fixed set of goroutines bound to one context.
// Feed it with Submit, call Close when done, and drain Results.
type Pool struct {
	size    int
	ctx     context.Context
	jobs    chan Job
	results chan Result
	running sync.WaitGroup
}

// NewPool creates a pool of size goroutines (at least one)
func NewPool(ctx context.Context, size int) *Pool {
	size = max(size, 1)
	return &Pool{
		size:    size,
		ctx:     ctx,
		jobs:    make(chan Job, size),
		results: make(chan Result, size),
	}
}

// Start launches the goroutines. Results closes after all of them return.
func (p *Pool) Start() {
	for range p.size {
		p.running.Go(p.run)
	}
	go func() {
		p.running.Wait()
		close(p.results)
	}()
}

func (p *Pool) run() {
	for {
		var job Job
		var ok bool
		select {
		case <-p.ctx.Done():
			return
		case job, ok = <-p.jobs:
			if !ok {
				return
			}
		}

		select {
		case p.results <- job.Execute(p.ctx):
		case <-p.ctx.Done():
			return
		}
	}
}

// Submit queues a job and reports false once the context is done
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Close ends submission; queued jobs still run
func (p *Pool) Close() {
	close(p.jobs)
}

// Results streams job results in completion order
func (p *Pool) Results() <-chan Result {
	return p.results
}
