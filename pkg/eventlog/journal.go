package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/logger"
)

const (
	EventFileDrop = "file_drop"

	// 每日一个日志文件
	dayLayout = "2006-01-02"
	fileExt   = ".json"
)

// Entry 日志中的一行
type Entry struct {
	Timestamp    string  `json:"timestamp"`
	EventType    string  `json:"event_type"`
	FileHash     string  `json:"file_hash"`
	OriginalName string  `json:"original_name"`
	Size         int64   `json:"size"`
	Priority     string  `json:"priority"`
	ActionFile   *string `json:"action_file"`
	DryRun       bool    `json:"dry_run"`
}

// Journal 追加写入的按日事件日志
type Journal struct {
	fs     afero.Fs
	dir    string
	dryRun bool
	now    func() time.Time
	mu     sync.Mutex
}

func NewJournal(fs afero.Fs, dir string, dryRun bool) *Journal {
	return &Journal{
		fs:     fs,
		dir:    dir,
		dryRun: dryRun,
		now:    time.Now,
	}
}

// NewEntry 由投递文件构造日志条目，actionFile 为空时记为 null
func (j *Journal) NewEntry(file internal.WatchedFile, actionFile string) Entry {
	entry := Entry{
		Timestamp:    j.now().Format(time.RFC3339Nano),
		EventType:    EventFileDrop,
		FileHash:     file.Hash,
		OriginalName: file.Name,
		Size:         file.Size,
		Priority:     string(file.Priority),
		DryRun:       j.dryRun,
	}
	if actionFile != "" {
		entry.ActionFile = &actionFile
	}
	return entry
}

// PathFor 返回指定时间对应的日志文件路径
func (j *Journal) PathFor(t time.Time) string {
	return filepath.Join(j.dir, t.Format(dayLayout)+fileExt)
}

// Append 追加一行，文件只追加不重写
func (j *Journal) Append(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化日志条目失败: %w", err)
	}

	if j.dryRun {
		logger.Get().Info().Str("entry", string(line)).Msg("[DRY RUN] Would log")
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	path := j.PathFor(j.now())
	file, err := j.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("写入日志文件失败: %w", err)
	}

	logger.Get().Debug().Str("log", path).Str("hash", entry.FileHash).Msg("已写入事件日志")
	return nil
}
