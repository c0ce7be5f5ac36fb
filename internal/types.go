package internal

import "time"

// 优先级
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityNormal Priority = "normal"
)

// 待处理状态
const StatusPending = "pending"

// WatchedFile 一个已确认写入完成的投递文件
type WatchedFile struct {
	Path       string
	Name       string
	Size       int64
	DetectedAt time.Time
	Hash       string
	Priority   Priority
	Status     string
	Kind       string // filetype 检测出的 MIME，未知为空
	Category   string
}

// 处理统计
type ProcessStats struct {
	TotalProcessed int
	Recorded       int
	Duplicates     int
	Vanished       int
	Failed         int
	StartTime      time.Time
	EndTime        time.Time
}

// Add 合并另一批次的统计
func (s *ProcessStats) Add(other ProcessStats) {
	s.TotalProcessed += other.TotalProcessed
	s.Recorded += other.Recorded
	s.Duplicates += other.Duplicates
	s.Vanished += other.Vanished
	s.Failed += other.Failed
}
