package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/logger"
	"github.com/moyu-x/dropwatch/pkg/pipeline"
)

// Processor 处理单个路径，由 pipeline.Pipeline 实现
type Processor interface {
	Process(ctx context.Context, path string) pipeline.Outcome
}

type Options struct {
	Window    time.Duration
	QueueSize int
	Workers   int
	// OnBatch 每个批次处理完后回调，可为 nil
	OnBatch func(paths []string, stats internal.ProcessStats)
}

// Coordinator 将静默窗口内到达的路径合并为一个批次，
// 批次交给 goroutine 池执行，批次内按顺序处理
type Coordinator struct {
	proc    Processor
	window  time.Duration
	onBatch func([]string, internal.ProcessStats)

	queue chan string
	stop  chan struct{}
	done  chan struct{}
	pool  *ants.Pool
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool

	statsMu sync.Mutex
	stats   internal.ProcessStats
}

func New(proc Processor, opts Options) (*Coordinator, error) {
	if opts.Window <= 0 {
		opts.Window = internal.DefaultBatchWindow
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = internal.DefaultBufferSize
	}
	if opts.Workers <= 0 {
		opts.Workers = internal.DefaultWorkers
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("创建 goroutine 池失败: %w", err)
	}

	logger.Get().Info().
		Dur("window", opts.Window).
		Int("workers", opts.Workers).
		Msg("创建批处理协调器")

	return &Coordinator{
		proc:    proc,
		window:  opts.Window,
		onBatch: opts.OnBatch,
		queue:   make(chan string, opts.QueueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		pool:    pool,
		stats:   internal.ProcessStats{StartTime: time.Now()},
	}, nil
}

// Start 启动收集 goroutine；ctx 传递给每次处理
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.collect(ctx)
}

// Submit 放入一个候选路径；停止后返回 false。
// 队列满时阻塞直到收集 goroutine 取走。
func (c *Coordinator) Submit(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	c.queue <- path
	return true
}

// Stop 停止接收，处理掉已排队的路径并等待所有批次完成
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	close(c.stop)
	if started {
		<-c.done
	}
	c.wg.Wait()
	c.pool.Release()

	c.statsMu.Lock()
	c.stats.EndTime = time.Now()
	c.statsMu.Unlock()
	logger.Get().Info().Msg("批处理协调器已停止")
}

// Stats 返回截至目前的累计统计
func (c *Coordinator) Stats() internal.ProcessStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *Coordinator) collect(ctx context.Context) {
	defer close(c.done)

	var pending []string
	timer := time.NewTimer(c.window)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case path := <-c.queue:
			pending = append(pending, path)
			// 每次到达都重新计时，直到静默满一个窗口
			timer.Reset(c.window)
			fire = timer.C
		case <-fire:
			fire = nil
			c.dispatch(ctx, pending)
			pending = nil
		case <-c.stop:
			timer.Stop()
		drain:
			for {
				select {
				case path := <-c.queue:
					pending = append(pending, path)
				default:
					break drain
				}
			}
			c.dispatch(ctx, pending)
			return
		}
	}
}

func (c *Coordinator) dispatch(ctx context.Context, paths []string) {
	batch := unique(paths)
	if len(batch) == 0 {
		return
	}

	c.wg.Add(1)
	err := c.pool.Submit(func() {
		defer c.wg.Done()
		c.run(ctx, batch)
	})
	if err != nil {
		logger.Get().Warn().Err(err).Msg("提交批次失败，在当前 goroutine 处理")
		defer c.wg.Done()
		c.run(ctx, batch)
	}
}

func (c *Coordinator) run(ctx context.Context, batch []string) {
	logger.Get().Info().Int("files", len(batch)).Msg("开始处理批次")

	var stats internal.ProcessStats
	for _, path := range batch {
		pipeline.Tally(&stats, c.proc.Process(ctx, path))
	}

	c.statsMu.Lock()
	c.stats.Add(stats)
	c.statsMu.Unlock()

	logger.Get().Info().
		Int("recorded", stats.Recorded).
		Int("duplicates", stats.Duplicates).
		Int("vanished", stats.Vanished).
		Int("failed", stats.Failed).
		Msg("批次处理完成")

	if c.onBatch != nil {
		c.onBatch(batch, stats)
	}
}

// unique 去掉同一批次内重复的路径，保持到达顺序
func unique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
