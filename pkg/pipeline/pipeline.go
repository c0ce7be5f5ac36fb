package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/classifier"
	"github.com/moyu-x/dropwatch/pkg/dedup"
	"github.com/moyu-x/dropwatch/pkg/eventlog"
	"github.com/moyu-x/dropwatch/pkg/hasher"
	"github.com/moyu-x/dropwatch/pkg/logger"
	"github.com/moyu-x/dropwatch/pkg/namer"
	"github.com/moyu-x/dropwatch/pkg/record"
	"github.com/moyu-x/dropwatch/pkg/stability"
)

// 记录文件名被抢占时的重试次数
const maxRecordAttempts = 3

var tempExtensions = map[string]bool{
	".tmp":        true,
	".part":       true,
	".crdownload": true,
}

// IsCandidate 过滤隐藏文件和临时下载文件
func IsCandidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !tempExtensions[strings.ToLower(filepath.Ext(name))]
}

// Index 可选的记录索引
type Index interface {
	Insert(file internal.WatchedFile, actionFile string) error
}

// Pipeline 单个文件的处理流程:
// 稳定性等待 → 指纹 → 去重 → 创建记录 → 写日志 → 标记已处理
type Pipeline struct {
	Fs        afero.Fs
	Stability *stability.Detector
	Hasher    *hasher.Hasher
	Processed *dedup.Set
	Namer     *namer.Namer
	Records   *record.Writer
	Journal   *eventlog.Journal
	Types     *classifier.Detector
	Index     Index // 可为 nil
	Now       func() time.Time
}

// Process 处理一个候选路径，所有错误都记录日志并体现在 Outcome 中
func (p *Pipeline) Process(ctx context.Context, path string) (out Outcome) {
	out = Outcome{Path: path, State: StateDetected}

	defer func() {
		if r := recover(); r != nil {
			out.State = StateFailed
			out.Err = fmt.Errorf("处理文件时发生异常: %v", r)
			logger.Get().Error().Err(out.Err).Str("file", path).Msg("处理文件失败")
		}
	}()

	if !IsCandidate(path) {
		logger.Get().Debug().Str("file", path).Msg("忽略隐藏或临时文件")
		return out.halt(StateIgnored, nil)
	}

	info, err := p.Fs.Stat(path)
	if err != nil {
		return p.statFailure(out, err)
	}
	if info.IsDir() {
		return out.halt(StateIgnored, nil)
	}

	out.State = StateStabilizing
	switch p.Stability.Wait(ctx, path) {
	case stability.Vanished:
		logger.Get().Warn().Str("file", path).Msg("等待期间文件消失")
		return out.halt(StateVanished, nil)
	case stability.Canceled:
		return out.halt(StateCanceled, ctx.Err())
	case stability.TimedOutButProceed, stability.Stable:
	}

	info, err = p.Fs.Stat(path)
	if err != nil {
		return p.statFailure(out, err)
	}
	if info.Size() == 0 {
		logger.Get().Warn().Str("file", info.Name()).Msg("检测到空文件，仍然处理并标记复查")
	}

	fp := p.Hasher.Fingerprint(path)
	out.State = StateHashed

	// 回退指纹不参与去重，无法读取的文件每次都生成记录
	fallback := hasher.IsFallback(fp)
	if fallback {
		logger.Get().Warn().Str("file", info.Name()).Str("hash", fp).Msg("使用回退指纹，跳过去重")
	}

	// 检查与标记在同一把锁内完成，两个同内容文件只有一个能通过
	if !fallback && !p.Processed.TryMark(fp) {
		logger.Get().Info().Str("file", info.Name()).Str("hash", fp).Msg("重复文件，跳过")
		out.File.Hash = fp
		return out.halt(StateDuplicate, nil)
	}

	file := internal.WatchedFile{
		Path:       path,
		Name:       info.Name(),
		Size:       info.Size(),
		DetectedAt: p.now(),
		Hash:       fp,
		Priority:   classifier.Priority(info.Name(), info.Size()),
		Status:     internal.StatusPending,
	}
	if p.Types != nil {
		if kind, category, err := p.Types.Detect(path); err == nil {
			file.Kind, file.Category = kind, category
		} else {
			logger.Get().Debug().Err(err).Str("file", path).Msg("检测文件类型失败")
		}
	}
	out.File = file

	actionFile, err := p.createRecord(file)
	if err != nil {
		// 未落盘的指纹不能保持已处理状态，下次扫描重试
		if !fallback {
			p.Processed.Forget(fp)
		}
		logger.Get().Error().Err(err).Str("file", file.Name).Msg("创建记录文件失败")
		return out.halt(StateFailed, err)
	}
	out.ActionFile = actionFile
	out.State = StateRecorded

	if err := p.Journal.Append(p.Journal.NewEntry(file, actionFile)); err != nil {
		logger.Get().Error().Err(err).Str("file", file.Name).Msg("写入事件日志失败")
		out.Err = err
	} else {
		out.State = StateLogged
	}

	if p.Index != nil && !fallback {
		if err := p.Index.Insert(file, actionFile); err != nil {
			logger.Get().Warn().Err(err).Str("file", file.Name).Msg("写入记录索引失败")
		}
	}

	if !fallback {
		p.Processed.Mark(fp)
	}
	out.State = StateMarkedProcessed

	logger.Get().Info().
		Str("file", file.Name).
		Str("hash", fp).
		Str("priority", string(file.Priority)).
		Msg("处理完成")
	return out
}

func (p *Pipeline) createRecord(file internal.WatchedFile) (string, error) {
	content, err := record.Render(file)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < maxRecordAttempts; attempt++ {
		name, err := p.Namer.UniqueName(file.Name)
		if err != nil {
			return "", err
		}
		path, err := p.Records.Write(name, content)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, record.ErrExists) {
			return "", err
		}
		lastErr = err
		logger.Get().Debug().Str("name", name).Msg("记录文件名被抢占，重新生成")
	}
	return "", lastErr
}

func (p *Pipeline) statFailure(out Outcome, err error) Outcome {
	if errors.Is(err, os.ErrNotExist) {
		logger.Get().Warn().Str("file", out.Path).Msg("文件已不存在")
		return out.halt(StateVanished, nil)
	}
	logger.Get().Error().Err(err).Str("file", out.Path).Msg("无法读取文件信息")
	return out.halt(StateFailed, err)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
