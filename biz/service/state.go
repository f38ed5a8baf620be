package service

// State 是单次查询执行的状态机状态
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinalizing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFinalizing:
		return "finalizing"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}
