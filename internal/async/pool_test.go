package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDo_ReturnsResult(t *testing.T) {
	p := NewPool(testLogger(), WithWorkers(2), WithQueueSize(4))
	defer p.Shutdown(context.Background())

	got, err := Do(context.Background(), p, func(context.Context) (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Fatalf("Do = %d, %v", got, err)
	}

	boom := errors.New("boom")
	if _, err := Do(context.Background(), p, func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestDo_NilPoolRunsInline(t *testing.T) {
	got, err := Do(context.Background(), nil, func(context.Context) (string, error) { return "inline", nil })
	if err != nil || got != "inline" {
		t.Fatalf("Do = %q, %v", got, err)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(testLogger(), WithWorkers(workers), WithQueueSize(32))
	defer p.Shutdown(context.Background())

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Do(context.Background(), p, func(context.Context) (struct{}, error) {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()
	if peak.Load() > workers {
		t.Errorf("peak concurrency = %d, want <= %d", peak.Load(), workers)
	}
}

func TestDo_CallerCancellation(t *testing.T) {
	p := NewPool(testLogger(), WithWorkers(1))
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Do(ctx, p, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	close(release)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestSubmit_AfterShutdown(t *testing.T) {
	p := NewPool(testLogger())
	p.Shutdown(context.Background())
	p.Shutdown(context.Background())

	if err := p.Submit(context.Background(), func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("err = %v, want ErrPoolClosed", err)
	}
}

func TestShutdown_DrainsQueuedTasks(t *testing.T) {
	p := NewPool(testLogger(), WithWorkers(1), WithQueueSize(8))
	var done atomic.Int32
	for i := 0; i < 5; i++ {
		if err := p.Submit(context.Background(), func() { done.Add(1) }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	p.Shutdown(context.Background())
	if done.Load() != 5 {
		t.Errorf("done = %d, want 5", done.Load())
	}
}
