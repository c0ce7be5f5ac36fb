package internal

import "time"

const (
	// 默认 vault 根目录
	DefaultVaultPath = "./AI_Employee_Vault"

	// 缓冲区大小，批处理队列容量
	DefaultBufferSize = 1000

	// 批处理并发数
	DefaultWorkers = 2

	// 稳定性检测参数
	DefaultStabilityInterval  = 500 * time.Millisecond
	DefaultMaxStabilityChecks = 20

	// 批处理静默窗口
	DefaultBatchWindow = time.Second

	// 大文件阈值（10 MiB），超过视为 medium 优先级
	LargeFileThreshold = 10 * 1024 * 1024
)
