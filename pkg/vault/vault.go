package vault

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/pkg/logger"
)

// ErrMissingFolder vault 缺少必需目录，启动前即视为致命错误
var ErrMissingFolder = errors.New("vault 目录缺失")

const (
	InboxDir       = "Inbox"
	NeedsActionDir = "Needs_Action"
	DoneDir        = "Done"
	PlansDir       = "Plans"
	LogsDir        = "Logs"
)

// Layout vault 根目录下的各子目录
type Layout struct {
	Root        string
	Inbox       string
	NeedsAction string
	Done        string
	Plans       string
	Logs        string
}

func New(root string) Layout {
	return Layout{
		Root:        root,
		Inbox:       filepath.Join(root, InboxDir),
		NeedsAction: filepath.Join(root, NeedsActionDir),
		Done:        filepath.Join(root, DoneDir),
		Plans:       filepath.Join(root, PlansDir),
		Logs:        filepath.Join(root, LogsDir),
	}
}

func (l Layout) folders() []string {
	return []string{l.Inbox, l.NeedsAction, l.Done, l.Plans, l.Logs}
}

// Validate 检查所有目录存在，返回第一个缺失的目录
func (l Layout) Validate(fs afero.Fs) error {
	for _, dir := range l.folders() {
		ok, err := afero.DirExists(fs, dir)
		if err != nil {
			return fmt.Errorf("检查目录失败 %s: %w", dir, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingFolder, dir)
		}
	}
	return nil
}

// Ensure 创建缺失的目录
func (l Layout) Ensure(fs afero.Fs) error {
	for _, dir := range l.folders() {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 %s: %w", dir, err)
		}
		logger.Get().Debug().Str("dir", dir).Msg("目录已就绪")
	}
	return nil
}
