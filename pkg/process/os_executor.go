package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
	"github.com/tklauser/ps"
)

// errStillRunning is used internally to drive the graceful-stop backoff loop.
var errStillRunning = errors.New("process is still running")

// managedProcess tracks one process started by the executor.
type managedProcess struct {
	cmd *exec.Cmd

	// exited is closed when the wait goroutine observes process exit.
	exited chan struct{}
}

type OSExecutor struct {
	procs map[int32]*managedProcess
	lock  sync.Mutex
	log   logr.Logger
}

func NewOSExecutor(log logr.Logger) Executor {
	return &OSExecutor{
		procs: make(map[int32]*managedProcess),
		log:   log.WithName("os-executor"),
	}
}

func (e *OSExecutor) StartProcess(ctx context.Context, cmd *exec.Cmd, exitHandler ProcessExitHandler) (int32, time.Time, error) {
	if err := cmd.Start(); err != nil {
		return UnknownPID, time.Time{}, err
	}
	processStartTime := time.Now()

	pid := int32(cmd.Process.Pid)

	psProcess, psProcessErr := ps.FindProcess(cmd.Process.Pid)
	if psProcessErr != nil {
		e.log.Error(psProcessErr, "could not find process startup time", "PID", pid)
	} else {
		// This is what the OS process startup timestamp is, so it is the most accurate value we can get.
		processStartTime = psProcess.CreationTime()
	}

	mp := &managedProcess{
		cmd:    cmd,
		exited: make(chan struct{}),
	}

	e.lock.Lock()
	e.procs[pid] = mp
	e.lock.Unlock()

	// The wait goroutine is the only caller of cmd.Wait for this process.
	go func() {
		waitErr := cmd.Wait()
		close(mp.exited)

		e.lock.Lock()
		delete(e.procs, pid)
		e.lock.Unlock()

		exitCode, execErr := getProcessExecResult(waitErr, cmd)
		e.log.V(1).Info("process exited", "PID", pid, "exitCode", exitCode)
		if exitHandler != nil {
			exitHandler.OnProcessExited(pid, exitCode, execErr)
		}
	}()

	// Tie the process lifetime to the context.
	go func() {
		select {
		case <-ctx.Done():
			if killErr := cmd.Process.Kill(); killErr != nil {
				e.log.V(1).Info("could not kill process on context cancellation", "PID", pid, "error", killErr.Error())
			}
		case <-mp.exited:
		}
	}()

	return pid, processStartTime, nil
}

func (e *OSExecutor) StopProcess(pid int32, grace time.Duration) error {
	e.lock.Lock()
	mp, found := e.procs[pid]
	e.lock.Unlock()

	if !found {
		// Already exited and reaped.
		return nil
	}

	// Give the process the grace period to exit on its own before killing it.
	// The caller is expected to have already requested a graceful shutdown.
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(10*time.Millisecond),
		backoff.WithMaxInterval(250*time.Millisecond),
		backoff.WithMaxElapsedTime(grace),
	)
	waitErr := backoff.Retry(func() error {
		select {
		case <-mp.exited:
			return nil
		default:
			return errStillRunning
		}
	}, b)
	if waitErr == nil {
		return nil
	}

	e.log.V(1).Info("process did not exit within the grace period, killing it", "PID", pid, "grace", grace.String())
	if killErr := mp.cmd.Process.Kill(); killErr != nil {
		select {
		case <-mp.exited:
			// Lost the race with process exit; nothing to do.
			return nil
		default:
		}
		return fmt.Errorf("could not kill process %d: %w", pid, killErr)
	}

	<-mp.exited
	return nil
}

// Returns the process exit code and execution error depending on the result of the command wait call.
func getProcessExecResult(waitErr error, cmd *exec.Cmd) (int32, error) {
	var ee *exec.ExitError
	if waitErr == nil {
		return int32(cmd.ProcessState.ExitCode()), nil
	} else if errors.As(waitErr, &ee) {
		return int32(ee.ExitCode()), nil
	} else {
		return UnknownExitCode, waitErr
	}
}

var _ Executor = (*OSExecutor)(nil)
