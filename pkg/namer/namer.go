package namer

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/pkg/logger"
)

const (
	Prefix      = "ACTION_"
	RecordExt   = ".md"
	Placeholder = "unnamed_file"

	timestampLayout = "20060102_150405"

	// 计数器尝试上限，超过后改用 uuid 后缀
	maxCounter = 1000
)

var ErrNoUniqueName = errors.New("无法生成唯一文件名")

var reservedChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// Sanitize 替换文件系统保留字符，去除首尾空格和点，结果为空时返回占位名
func Sanitize(name string) string {
	sanitized := reservedChars.ReplaceAllString(name, "_")
	sanitized = strings.Trim(sanitized, " .")
	if sanitized == "" {
		return Placeholder
	}
	return sanitized
}

// Namer 在输出目录中生成不冲突的记录文件名
type Namer struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

func New(fs afero.Fs, dir string) *Namer {
	return &Namer{fs: fs, dir: dir, now: time.Now}
}

// WithClock 替换时钟，测试用
func (n *Namer) WithClock(now func() time.Time) *Namer {
	n.now = now
	return n
}

// UniqueName 生成 ACTION_<名称>_<时间戳>[_<序号>]<扩展名>.md
// 只保证调用时刻不与已有文件冲突
func (n *Namer) UniqueName(original string) (string, error) {
	base, ext := splitName(original)
	stem := Prefix + Sanitize(base) + "_" + n.now().Format(timestampLayout)

	candidate := stem + ext + RecordExt
	for counter := 1; ; counter++ {
		exists, err := afero.Exists(n.fs, filepath.Join(n.dir, candidate))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoUniqueName, err)
		}
		if !exists {
			return candidate, nil
		}
		if counter > maxCounter {
			break
		}
		candidate = fmt.Sprintf("%s_%d%s%s", stem, counter, ext, RecordExt)
	}

	candidate = fmt.Sprintf("%s_%s%s%s", stem, uuid.NewString(), ext, RecordExt)
	logger.Get().Warn().Str("name", candidate).Msg("序号冲突过多，使用 uuid 后缀")
	return candidate, nil
}

func splitName(original string) (string, string) {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	if base == "" {
		// ".env" 这类名称没有扩展名
		return original, ""
	}
	return base, reservedChars.ReplaceAllString(ext, "_")
}
