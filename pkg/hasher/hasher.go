package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/pkg/logger"
)

const (
	AlgorithmSHA256 = "sha256"
	AlgorithmXXHash = "xxhash"

	// 指纹长度（十六进制字符）
	FingerprintLength = 16

	// 读取块大小
	BlockSize = 4096

	fallbackPrefix = "error_"
)

// Hasher 计算文件内容指纹
type Hasher struct {
	fs        afero.Fs
	algorithm string
	now       func() time.Time
}

func New(fs afero.Fs, algorithm string) (*Hasher, error) {
	switch algorithm {
	case "", AlgorithmSHA256:
		algorithm = AlgorithmSHA256
	case AlgorithmXXHash:
	default:
		return nil, fmt.Errorf("不支持的哈希算法: %s", algorithm)
	}
	return &Hasher{fs: fs, algorithm: algorithm, now: time.Now}, nil
}

// WithClock 替换回退指纹使用的时钟，测试用
func (h *Hasher) WithClock(now func() time.Time) *Hasher {
	h.now = now
	return h
}

func (h *Hasher) Algorithm() string {
	return h.algorithm
}

func (h *Hasher) newHash() hash.Hash {
	if h.algorithm == AlgorithmXXHash {
		return xxhash.New()
	}
	return sha256.New()
}

// CalculateHash 按块流式读取文件，返回截断后的十六进制摘要
func (h *Hasher) CalculateHash(filePath string) (string, error) {
	file, err := h.fs.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	sum := h.newHash()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(sum, file, buf); err != nil {
		return "", fmt.Errorf("计算哈希失败: %w", err)
	}

	digest := hex.EncodeToString(sum.Sum(nil))
	if len(digest) > FingerprintLength {
		digest = digest[:FingerprintLength]
	}
	return digest, nil
}

// Fingerprint 返回文件指纹；读取失败时返回基于当前时间的回退指纹，
// 该文件将不参与去重
func (h *Hasher) Fingerprint(filePath string) string {
	fp, err := h.CalculateHash(filePath)
	if err != nil {
		logger.Get().Error().Err(err).Str("file", filePath).Msg("计算文件哈希失败，使用回退指纹")
		return fmt.Sprintf("%s%d", fallbackPrefix, h.now().Unix())
	}
	logger.Get().Debug().Str("file", filePath).Str("hash", fp).Msg("文件哈希计算完成")
	return fp
}

// IsFallback 判断指纹是否为读取失败时的回退值
func IsFallback(fp string) bool {
	return strings.HasPrefix(fp, fallbackPrefix)
}
