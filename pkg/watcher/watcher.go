package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/moyu-x/dropwatch/pkg/logger"
	"github.com/moyu-x/dropwatch/pkg/pipeline"
)

// Watcher 订阅收件目录的创建事件（不递归），把候选路径交给 sink
type Watcher struct {
	fsw  *fsnotify.Watcher
	dir  string
	sink func(path string)

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(dir string, sink func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听失败: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("监听目录失败 %s: %w", dir, err)
	}

	return &Watcher{
		fsw:  fsw,
		dir:  dir,
		sink: sink,
		done: make(chan struct{}),
	}, nil
}

// Start 在独立 goroutine 中转发事件，直到 ctx 结束或 Close
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
	logger.Get().Info().Str("dir", w.dir).Msg("开始监听")
}

// Close 停止监听并等待转发 goroutine 退出
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
		logger.Get().Info().Msg("监听已停止")
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				w.handleCreate(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Get().Error().Err(err).Str("dir", w.dir).Msg("文件监听出错")
		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleCreate(path string) {
	name := filepath.Base(path)
	if !pipeline.IsCandidate(path) {
		logger.Get().Debug().Str("file", name).Msg("忽略隐藏或临时文件")
		return
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return
	}

	logger.Get().Info().Str("file", name).Msg("检测到新文件")
	w.sink(path)
}
