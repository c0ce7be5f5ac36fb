package classifier

import (
	"fmt"
	"io"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
)

// 类型检测读取的文件头大小
const HeaderSize = 8192

// 高优先级关键字
var highPriorityKeywords = []string{"urgent", "invoice", "payment", "contract", "legal"}

// Priority 按文件名和大小确定优先级，关键字优先于大小
func Priority(name string, size int64) internal.Priority {
	lower := strings.ToLower(name)
	for _, kw := range highPriorityKeywords {
		if strings.Contains(lower, kw) {
			return internal.PriorityHigh
		}
	}

	if size > internal.LargeFileThreshold {
		return internal.PriorityMedium
	}

	return internal.PriorityNormal
}

// Detector 基于文件头魔数检测内容类型
type Detector struct {
	fs afero.Fs
}

func NewDetector(fs afero.Fs) *Detector {
	return &Detector{fs: fs}
}

// Detect 返回 MIME 与分类；无法识别时 MIME 为空、分类为 other
func (d *Detector) Detect(filePath string) (string, string, error) {
	kind, err := d.detectFileType(filePath)
	if err != nil {
		return "", "", err
	}
	if kind == types.Unknown {
		return "", Category(kind), nil
	}
	return kind.MIME.Value, Category(kind), nil
}

// Category 将文件类型归入 image/video/audio/document/archive/other
func Category(fileType types.Type) string {
	mime := fileType.MIME.Value

	if len(mime) >= 5 {
		switch mime[:5] {
		case "image":
			return "image"
		case "video":
			return "video"
		case "audio":
			return "audio"
		}
	}

	switch fileType.Extension {
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "rtf", "odt", "ods", "odp":
		return "document"
	case "zip", "tar", "gz", "bz2", "rar", "7z", "xz":
		return "archive"
	}

	return "other"
}

func (d *Detector) detectFileType(filePath string) (types.Type, error) {
	file, err := d.fs.Open(filePath)
	if err != nil {
		return types.Unknown, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, HeaderSize)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return types.Unknown, fmt.Errorf("读取文件头部失败: %w", err)
	}

	if n == 0 {
		return types.Unknown, nil
	}

	return filetype.Match(buffer[:n])
}
