package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/logger"
	"github.com/moyu-x/dropwatch/pkg/pipeline"
)

type Processor interface {
	Process(ctx context.Context, path string) pipeline.Outcome
}

// Scanner 启动时处理收件目录中已有的文件
type Scanner struct {
	fs   afero.Fs
	dir  string
	proc Processor
}

func New(fs afero.Fs, dir string, proc Processor) *Scanner {
	return &Scanner{fs: fs, dir: dir, proc: proc}
}

// List 返回目录下（不递归）的普通非隐藏文件，按名称排序
func (s *Scanner) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("读取收件目录失败: %w", err)
	}

	var files []string
	for _, info := range entries {
		if strings.HasPrefix(info.Name(), ".") {
			continue
		}
		path := filepath.Join(s.dir, info.Name())
		if info.Mode()&os.ModeSymlink != 0 {
			// 跟随符号链接判断目标类型
			target, err := s.fs.Stat(path)
			if err != nil {
				logger.Get().Debug().Err(err).Str("path", path).Msg("无法解析符号链接")
				continue
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}

// Scan 将已有文件作为一个批次直接送入处理流程，不经过静默窗口
func (s *Scanner) Scan(ctx context.Context) (internal.ProcessStats, error) {
	stats := internal.ProcessStats{StartTime: time.Now()}

	logger.Get().Info().Str("dir", s.dir).Msg("检查收件目录中已有的文件...")
	files, err := s.List()
	if err != nil {
		return stats, err
	}

	if len(files) == 0 {
		logger.Get().Info().Msg("没有发现已有文件")
		stats.EndTime = time.Now()
		return stats, nil
	}

	logger.Get().Info().Int("count", len(files)).Msg("发现已有文件，开始处理")
	for _, path := range files {
		if ctx.Err() != nil {
			logger.Get().Warn().Msg("扫描被中断")
			break
		}
		pipeline.Tally(&stats, s.proc.Process(ctx, path))
	}

	stats.EndTime = time.Now()
	return stats, nil
}
