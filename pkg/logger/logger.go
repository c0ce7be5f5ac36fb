package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	Logger *zerolog.Logger
	mu     sync.Mutex
)

// Init 初始化 zerolog 日志
// level: 日志级别 ("debug", "info", "warn", "error")
// file: 日志文件路径，为空时仅输出到控制台
func Init(level string, file string) error {
	var out io.Writer = os.Stdout

	if file != "" {
		fileWriter, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stdout, fileWriter)
	}

	InitWithWriter(level, zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"})
	return nil
}

// InitWithWriter 使用指定输出初始化日志，测试中用于捕获输出
func InitWithWriter(level string, w io.Writer) {
	l := zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()

	mu.Lock()
	Logger = &l
	mu.Unlock()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 返回全局 logger 实例
// 未初始化时返回丢弃输出的 logger
func Get() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if Logger == nil {
		l := zerolog.New(io.Discard)
		Logger = &l
	}
	return Logger
}
