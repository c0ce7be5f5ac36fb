package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/pkg/dedup"
	"github.com/moyu-x/dropwatch/pkg/logger"
)

// 单行最大长度
const maxLineSize = 1024 * 1024

// Replay 读取日志目录下所有历史日志，重建已处理指纹集合。
// 无法解析或缺少 file_hash 的行被跳过；日志目录不存在时返回空集合。
func Replay(fs afero.Fs, dir string) (*dedup.Set, error) {
	set := dedup.NewSet()

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("检查日志目录失败: %w", err)
	}
	if !exists {
		return set, nil
	}

	files, err := afero.Glob(fs, filepath.Join(dir, "*"+fileExt))
	if err != nil {
		return nil, fmt.Errorf("列出日志文件失败: %w", err)
	}

	skipped := 0
	for _, path := range files {
		n, err := replayFile(fs, path, set)
		if err != nil {
			logger.Get().Warn().Err(err).Str("log", path).Msg("读取历史日志失败，跳过")
			continue
		}
		skipped += n
	}

	logger.Get().Info().
		Int("files", len(files)).
		Int("hashes", set.Len()).
		Int("skipped_lines", skipped).
		Msg("已从历史日志加载指纹")
	return set, nil
}

func replayFile(fs afero.Fs, path string, set *dedup.Set) (int, error) {
	file, err := fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	skipped := 0
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, tooLong, err := readLine(reader)
		switch {
		case tooLong:
			skipped++
		case len(bytes.TrimSpace(line)) > 0:
			var entry struct {
				FileHash string `json:"file_hash"`
			}
			if jsonErr := json.Unmarshal(line, &entry); jsonErr != nil || entry.FileHash == "" {
				skipped++
			} else {
				set.Mark(entry.FileHash)
			}
		}

		if err == io.EOF {
			return skipped, nil
		}
		if err != nil {
			return skipped, err
		}
	}
}

// readLine 读取一行；超过 maxLineSize 的行被整行丢弃，tooLong 为 true
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, err
	}
}
