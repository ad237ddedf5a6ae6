// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/go-logr/logr"

	"github.com/Satone7/mcp-server-gdb/internal/mi"
	"github.com/Satone7/mcp-server-gdb/pkg/process"
)

const defaultGDBPath = "gdb"

// spawn starts a debugger subprocess in MI mode and wires its stdio into a
// transport. The exit handler fires when the subprocess terminates for any
// reason.
func spawn(
	ctx context.Context,
	cfg LaunchConfig,
	defaultPath string,
	executor process.Executor,
	exitHandler process.ProcessExitHandler,
	log logr.Logger,
) (mi.Transport, int32, error) {
	gdbPath := cfg.GDBPath
	if gdbPath == "" {
		gdbPath = defaultPath
	}
	if gdbPath == "" {
		gdbPath = defaultGDBPath
	}

	cmd := exec.Command(gdbPath, cfg.commandLine()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, process.UnknownPID, &LaunchError{Path: gdbPath, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, process.UnknownPID, &LaunchError{Path: gdbPath, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, process.UnknownPID, &LaunchError{Path: gdbPath, Err: err}
	}

	go logStderr(stderr, log)

	pid, startTime, err := executor.StartProcess(ctx, cmd, exitHandler)
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, process.UnknownPID, &LaunchError{Path: gdbPath, Err: err}
	}

	log.Info("Started debugger process", "path", gdbPath, "pid", pid, "startTime", startTime.Format(time.RFC3339))

	return mi.NewPipeTransport(stdout, stdin), pid, nil
}

// logStderr drains the debugger's standard error, surfacing each line in
// the diagnostics log. The debugger owns stdout for MI traffic; stderr is
// free-form noise that must not back up the pipe.
func logStderr(stderr io.ReadCloser, log logr.Logger) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			log.V(1).Info("Debugger stderr", "line", line)
		}
	}
}
