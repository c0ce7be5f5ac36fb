package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/pipeline"
)

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
	delay time.Duration
}

func (r *recordingProcessor) Process(ctx context.Context, path string) pipeline.Outcome {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	return pipeline.Outcome{Path: path, State: pipeline.StateMarkedProcessed}
}

func (r *recordingProcessor) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type batchLog struct {
	mu      sync.Mutex
	batches [][]string
	ch      chan []string
}

func newBatchLog() *batchLog {
	return &batchLog{ch: make(chan []string, 16)}
}

func (b *batchLog) onBatch(paths []string, _ internal.ProcessStats) {
	b.mu.Lock()
	b.batches = append(b.batches, paths)
	b.mu.Unlock()
	b.ch <- paths
}

func (b *batchLog) wait(t *testing.T, timeout time.Duration) []string {
	t.Helper()
	select {
	case paths := <-b.ch:
		return paths
	case <-time.After(timeout):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func newTestCoordinator(t *testing.T, proc Processor, window time.Duration, log *batchLog) *Coordinator {
	t.Helper()
	c, err := New(proc, Options{Window: window, QueueSize: 16, Workers: 2, OnBatch: log.onBatch})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.Start(context.Background())
	return c
}

func TestCoordinator_GroupsSimultaneousArrivals(t *testing.T) {
	proc := &recordingProcessor{}
	log := newBatchLog()
	c := newTestCoordinator(t, proc, 50*time.Millisecond, log)
	defer c.Stop()

	c.Submit("/inbox/a.txt")
	c.Submit("/inbox/b.txt")
	c.Submit("/inbox/c.txt")

	batch := log.wait(t, time.Second)
	if len(batch) != 3 {
		t.Fatalf("Expected one batch of 3, got %v", batch)
	}
	if batch[0] != "/inbox/a.txt" || batch[2] != "/inbox/c.txt" {
		t.Errorf("Batch should preserve arrival order: %v", batch)
	}
}

func TestCoordinator_TrickleDefersBatch(t *testing.T) {
	proc := &recordingProcessor{}
	log := newBatchLog()
	window := 80 * time.Millisecond
	c := newTestCoordinator(t, proc, window, log)
	defer c.Stop()

	start := time.Now()
	for i := 0; i < 5; i++ {
		c.Submit("/inbox/file" + string(rune('a'+i)))
		time.Sleep(window / 4)
		if len(proc.processed()) != 0 {
			t.Fatal("Batch drained before the quiet window elapsed")
		}
	}

	batch := log.wait(t, time.Second)
	if len(batch) != 5 {
		t.Errorf("Expected all 5 arrivals in one batch, got %d", len(batch))
	}
	if time.Since(start) < window+3*(window/4) {
		t.Error("Batch should wait for a full quiet window after the last arrival")
	}
}

func TestCoordinator_SeparateBatches(t *testing.T) {
	proc := &recordingProcessor{}
	log := newBatchLog()
	c := newTestCoordinator(t, proc, 20*time.Millisecond, log)
	defer c.Stop()

	c.Submit("/inbox/first.txt")
	first := log.wait(t, time.Second)
	c.Submit("/inbox/second.txt")
	second := log.wait(t, time.Second)

	if len(first) != 1 || len(second) != 1 {
		t.Errorf("Expected two single-file batches, got %v and %v", first, second)
	}
}

func TestCoordinator_CollapsesRepeatedPath(t *testing.T) {
	proc := &recordingProcessor{}
	log := newBatchLog()
	c := newTestCoordinator(t, proc, 20*time.Millisecond, log)
	defer c.Stop()

	c.Submit("/inbox/a.txt")
	c.Submit("/inbox/a.txt")

	if batch := log.wait(t, time.Second); len(batch) != 1 {
		t.Errorf("Expected repeated path collapsed, got %v", batch)
	}
}

func TestCoordinator_StopFlushesPending(t *testing.T) {
	proc := &recordingProcessor{delay: 10 * time.Millisecond}
	log := newBatchLog()
	c := newTestCoordinator(t, proc, time.Hour, log)

	c.Submit("/inbox/a.txt")
	c.Submit("/inbox/b.txt")
	c.Stop()

	if got := proc.processed(); len(got) != 2 {
		t.Errorf("Stop() should finish pending paths, processed %v", got)
	}
	stats := c.Stats()
	if stats.Recorded != 2 || stats.TotalProcessed != 2 {
		t.Errorf("Unexpected stats after stop: %+v", stats)
	}
	if c.Submit("/inbox/late.txt") {
		t.Error("Submit() after Stop() should be rejected")
	}
	c.Stop()
}
