package stability

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/logger"
)

// Result 稳定性检测结果
type Result int

const (
	Stable Result = iota
	Vanished
	TimedOutButProceed
	Canceled
)

func (r Result) String() string {
	switch r {
	case Stable:
		return "stable"
	case Vanished:
		return "vanished"
	case TimedOutButProceed:
		return "timed_out"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// 连续相同采样次数达到该值视为写入完成
const requiredStableCount = 2

// Detector 通过轮询文件大小判断写入是否完成
type Detector struct {
	Fs        afero.Fs
	Interval  time.Duration
	MaxChecks int
	// Sleep 为空时使用可被 ctx 打断的 time.Timer
	Sleep func(ctx context.Context, d time.Duration) error
}

func New(fs afero.Fs, interval time.Duration, maxChecks int) *Detector {
	if interval <= 0 {
		interval = internal.DefaultStabilityInterval
	}
	if maxChecks <= 0 {
		maxChecks = internal.DefaultMaxStabilityChecks
	}
	return &Detector{Fs: fs, Interval: interval, MaxChecks: maxChecks}
}

// Wait 阻塞直到文件大小稳定、文件消失或达到最大检测次数
func (d *Detector) Wait(ctx context.Context, path string) Result {
	lastSize := int64(-1)
	stableCount := 0

	for i := 0; i < d.MaxChecks; i++ {
		info, err := d.Fs.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return Vanished
		case err != nil:
			logger.Get().Warn().Err(err).Str("file", path).Msg("检查文件稳定性出错")
		case info.Size() == lastSize:
			stableCount++
			if stableCount >= requiredStableCount {
				return Stable
			}
		default:
			stableCount = 0
			lastSize = info.Size()
		}

		if err := d.sleep(ctx); err != nil {
			return Canceled
		}
	}

	logger.Get().Warn().Str("file", path).Int("checks", d.MaxChecks).Msg("文件未能按时稳定，继续处理")
	return TimedOutButProceed
}

func (d *Detector) sleep(ctx context.Context) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, d.Interval)
	}
	timer := time.NewTimer(d.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
