package engine

// LoopState is the frame loop state machine
//
// Transitions:
//
//	Stopped  -> Running            (Start)
//	Running  <-> Paused            (Pause / Resume)
//	Running  -> Stopping           (Stop, quit event)
//	Paused   -> Stopping           (Stop)
//	Stopping -> Stopped            (loop goroutine only)
//
// Mutation is guarded by the scheduler mutex. Stop is cooperative: the
// flag is observed at the top of the next iteration, never preempted
type LoopState int

const (
	StateStopped LoopState = iota
	StateRunning
	StatePaused
	StateStopping
)

// String returns the state name for logs and diagnostics
func (s LoopState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
