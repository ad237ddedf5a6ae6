package process

import (
	"context"
	"os/exec"
	"time"
)

const (
	// A valid exit code of a process is a non-negative number. We use UnknownExitCode to indicate that we have not obtained the exit code yet.
	UnknownExitCode int32 = -1

	// Unknown PID code is used when a process is not started (or fails to start)
	UnknownPID int32 = -1
)

type Executor interface {
	// Starts the process described by the given command instance.
	// When the passed context is cancelled, the process is automatically terminated.
	// Returns the process PID and its identity (creation) time.
	// The exit handler, if not nil, is invoked exactly once when the process finishes execution.
	StartProcess(ctx context.Context, cmd *exec.Cmd, exitHandler ProcessExitHandler) (pid int32, startTime time.Time, err error)

	// Stops the process with a given PID. The process is given the grace
	// period to exit on its own (the caller is expected to have requested a
	// graceful shutdown already, e.g. by sending a quit command); if it is
	// still running afterwards it is forcibly killed.
	StopProcess(pid int32, grace time.Duration) error
}

type ProcessExitHandler interface {
	// Indicates that the process with a given PID has finished execution.
	// If err is nil, the process exit code was properly captured and the exitCode value is valid.
	// If err is not nil, there was a problem tracking the process and the exitCode value is not valid.
	OnProcessExited(pid int32, exitCode int32, err error)
}

// Make it easy to supply a function as a process exit handler.
type ProcessExitHandlerFunc func(int32, int32, error)

func (f ProcessExitHandlerFunc) OnProcessExited(pid int32, exitCode int32, err error) {
	f(pid, exitCode, err)
}
