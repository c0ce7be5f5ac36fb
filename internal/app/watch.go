package app

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/batch"
	"github.com/moyu-x/dropwatch/pkg/logger"
	"github.com/moyu-x/dropwatch/pkg/watcher"
)

// RunWatch 先订阅收件目录，再处理已有文件，然后监听直到 ctx 结束。
// 扫描期间投递的文件由监听接收；与扫描重叠的路径按重复跳过。
// ctx 结束后停止接收新事件，已排队和正在处理的批次会处理完。
func RunWatch(ctx context.Context, opts *Options) (*Result, error) {
	fs := afero.NewOsFs()
	rt, err := prepare(fs, opts)
	if err != nil {
		return nil, err
	}
	defer rt.close()

	// 处理不随信号取消
	work := context.WithoutCancel(ctx)

	coord, err := batch.New(rt.pipeline, batch.Options{
		Window:    rt.cfg.Batch.Window,
		QueueSize: rt.cfg.Batch.QueueSize,
		Workers:   rt.cfg.Performance.Workers,
		OnBatch: func(paths []string, stats internal.ProcessStats) {
			logger.Get().Debug().Int("files", len(paths)).Int("recorded", stats.Recorded).Msg("批次回调")
		},
	})
	if err != nil {
		return nil, err
	}
	coord.Start(work)

	w, err := watcher.New(rt.layout.Inbox, func(path string) {
		if !coord.Submit(path) {
			logger.Get().Warn().Str("file", path).Msg("协调器已停止，丢弃事件")
		}
	})
	if err != nil {
		coord.Stop()
		return nil, err
	}
	w.Start(ctx)

	shutdown := func() {
		if err := w.Close(); err != nil {
			logger.Get().Warn().Err(err).Msg("关闭监听失败")
		}
		coord.Stop()
	}

	total := internal.ProcessStats{StartTime: time.Now()}

	scanned, err := rt.scan(ctx)
	if err != nil {
		shutdown()
		return nil, err
	}
	total.Add(scanned)

	logger.Get().Info().Str("inbox", rt.layout.Inbox).Msg("正在监听，按 Ctrl+C 停止")
	<-ctx.Done()
	logger.Get().Info().Msg("收到退出信号，正在停止...")

	shutdown()

	total.Add(coord.Stats())
	total.EndTime = time.Now()
	return &Result{Stats: total, DryRun: rt.cfg.DryRun}, nil
}
