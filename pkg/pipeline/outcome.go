package pipeline

import "github.com/moyu-x/dropwatch/internal"

// State 单个文件在处理流程中的状态
type State string

const (
	StateDetected        State = "detected"
	StateStabilizing     State = "stabilizing"
	StateHashed          State = "hashed"
	StateRecorded        State = "recorded"
	StateLogged          State = "logged"
	StateMarkedProcessed State = "marked_processed"

	// 终止状态
	StateIgnored   State = "ignored"
	StateVanished  State = "vanished"
	StateDuplicate State = "duplicate"
	StateCanceled  State = "canceled"
	StateFailed    State = "failed"
)

// Outcome 一次处理的结果
type Outcome struct {
	Path       string
	State      State
	File       internal.WatchedFile
	ActionFile string
	Err        error
}

func (o Outcome) halt(state State, err error) Outcome {
	o.State = state
	o.Err = err
	return o
}

// Tally 将结果计入统计
func Tally(stats *internal.ProcessStats, o Outcome) {
	switch o.State {
	case StateIgnored:
		return
	case StateMarkedProcessed:
		stats.Recorded++
	case StateDuplicate:
		stats.Duplicates++
	case StateVanished, StateCanceled:
		stats.Vanished++
	default:
		stats.Failed++
	}
	stats.TotalProcessed++
}
