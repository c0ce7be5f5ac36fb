package record

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/logger"
)

var ErrExists = errors.New("记录文件已存在")

const recordTemplate = `---
type: file_drop
original_name: {{.File.Name}}
original_path: {{.File.Path}}
size: {{.File.Size}}
size_human: {{.SizeHuman}}
detected: {{.Detected}}
file_hash: {{.File.Hash}}
extension: {{.Extension}}
priority: {{.File.Priority}}
status: {{.File.Status}}
---

## New File Dropped for Processing

**File:** {{.File.Name}}
**Size:** {{.SizeHuman}}
**Priority:** {{.PriorityUpper}}
{{- if .File.Kind}}
**Detected Type:** {{.File.Kind}} ({{.File.Category}})
{{- end}}
{{- if eq .File.Size 0}}
**Note:** empty file, review manually
{{- end}}

## Suggested Actions
- [ ] Analyze file content based on Company Handbook rules
- [ ] Determine required processing steps
- [ ] Update Dashboard.md with status
- [ ] Move to /Done when complete

## Notes
_Processing notes will be added here_
`

var tmpl = template.Must(template.New("action").Parse(recordTemplate))

type view struct {
	File          internal.WatchedFile
	SizeHuman     string
	Detected      string
	Extension     string
	PriorityUpper string
}

// Render 渲染 ActionRecord 内容
func Render(file internal.WatchedFile) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, view{
		File:          file,
		SizeHuman:     FormatSize(file.Size),
		Detected:      file.DetectedAt.Format(time.RFC3339),
		Extension:     strings.ToLower(filepath.Ext(file.Name)),
		PriorityUpper: strings.ToUpper(string(file.Priority)),
	})
	if err != nil {
		return "", fmt.Errorf("渲染记录失败: %w", err)
	}
	return buf.String(), nil
}

// FormatSize 以 1024 为进制格式化大小，保留一位小数
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}

// Writer 在输出目录中创建记录文件，从不覆盖已有文件
type Writer struct {
	fs     afero.Fs
	dir    string
	dryRun bool
}

func NewWriter(fs afero.Fs, dir string, dryRun bool) *Writer {
	return &Writer{fs: fs, dir: dir, dryRun: dryRun}
}

// Write 创建 name 文件并写入内容，返回完整路径；文件已存在时返回 ErrExists
func (w *Writer) Write(name, content string) (string, error) {
	path := filepath.Join(w.dir, name)

	if w.dryRun {
		logger.Get().Info().Str("path", path).Msg("[DRY RUN] Would create action file")
		return path, nil
	}

	file, err := w.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", fmt.Errorf("创建记录文件失败: %w", err)
	}

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		w.fs.Remove(path)
		return "", fmt.Errorf("写入记录文件失败: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("关闭记录文件失败: %w", err)
	}

	logger.Get().Info().Str("path", path).Msg("已创建记录文件")
	return path, nil
}
