package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32
	running   *int32
	peak      *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.running != nil {
		n := atomic.AddInt32(j.running, 1)
		defer atomic.AddInt32(j.running, -1)
		for {
			old := atomic.LoadInt32(j.peak)
			if n <= old || atomic.CompareAndSwapInt32(j.peak, old, n) {
				break
			}
		}
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{}
}

// collect drains the pool, failing the test if Results never closes
func collect(t *testing.T, p *Pool) []Result {
	t.Helper()
	var out []Result
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-p.Results():
			if !ok {
				return out
			}
			out = append(out, r)
		case <-deadline:
			t.Fatal("results channel never closed")
			return nil
		}
	}
}

func TestNewPool(t *testing.T) {
	tests := map[string]struct {
		in   int
		want int
	}{
		"positive": {in: 5, want: 5},
		"zero":     {in: 0, want: 1},
		"negative": {in: -1, want: 1},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := NewPool(context.Background(), tt.in)
			assert.Equal(t, tt.want, p.size)
			assert.Equal(t, tt.want, cap(p.jobs))
		})
	}
}

func TestPool_RunsEveryJob(t *testing.T) {
	p := NewPool(context.Background(), 3)
	p.Start()

	var executed int32
	go func() {
		for range 10 {
			p.Submit(&mockJob{executed: &executed})
		}
		p.Close()
	}()

	results := collect(t, p)
	assert.Len(t, results, 10)
	assert.Equal(t, int32(10), atomic.LoadInt32(&executed))
	for _, r := range results {
		assert.NoError(t, r.GetError())
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(context.Background(), 2)
	p.Start()

	var running, peak int32
	go func() {
		for range 8 {
			p.Submit(&mockJob{duration: 10 * time.Millisecond, running: &running, peak: &peak})
		}
		p.Close()
	}()

	assert.Len(t, collect(t, p), 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Positive(t, atomic.LoadInt32(&peak))
}

func TestPool_ErrorResults(t *testing.T) {
	p := NewPool(context.Background(), 2)
	p.Start()

	go func() {
		p.Submit(&mockJob{shouldErr: true})
		p.Submit(&mockJob{})
		p.Submit(&mockJob{shouldErr: true})
		p.Close()
	}()

	var failed int
	for _, r := range collect(t, p) {
		if r.GetError() != nil {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 1)
	p.Start()
	cancel()

	done := make(chan bool, 1)
	go func() { done <- p.Submit(&mockJob{}) }()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after cancel")
	}
	p.Close()
	collect(t, p)
}

func TestPool_CancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 2)
	p.Start()

	var executed int32
	require.True(t, p.Submit(&mockJob{duration: time.Minute, executed: &executed}))
	require.True(t, p.Submit(&mockJob{duration: time.Minute, executed: &executed}))

	time.Sleep(20 * time.Millisecond)
	cancel()

	// Results closes without Close once every goroutine has seen the cancel
	start := time.Now()
	collect(t, p)
	assert.Less(t, time.Since(start), 2*time.Second)
}
