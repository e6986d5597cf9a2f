package core

// RunStatus is the terminal state of a loop run.
type RunStatus string

const (
	// RunCompleted means the completion marker was observed. Exit code 0.
	RunCompleted RunStatus = "completed"
	// RunExhausted means the iteration budget ran out without the marker.
	// Exit code 1.
	RunExhausted RunStatus = "exhausted"
	// RunStartupFailed means setup or provider detection failed before the
	// loop body ever executed. Exit code 1.
	RunStartupFailed RunStatus = "startup_failed"
)

// ExitCode maps a terminal run status to the process exit code.
func (s RunStatus) ExitCode() int {
	if s == RunCompleted {
		return 0
	}
	return 1
}
