// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"fmt"
	"strconv"
)

// LaunchConfig describes how to start one debugger instance. All fields are
// optional; the zero value launches a bare debugger.
type LaunchConfig struct {
	// Program is the path to the executable to debug.
	Program string `json:"program,omitempty"`

	// NoInitFile suppresses reading of ~/.gdbinit (--nh).
	NoInitFile bool `json:"nh,omitempty"`

	// NoAnyInitFiles suppresses reading of all .gdbinit files (--nx).
	NoAnyInitFiles bool `json:"nx,omitempty"`

	// Quiet suppresses the version banner on startup.
	Quiet bool `json:"quiet,omitempty"`

	// WorkingDir changes the debugger's current directory.
	WorkingDir string `json:"cd,omitempty"`

	// BaudRate sets the serial port baud rate used for remote debugging.
	BaudRate int `json:"bps,omitempty"`

	// SymbolFile reads symbols from the given file.
	SymbolFile string `json:"symbol_file,omitempty"`

	// CoreFile analyzes the given core dump.
	CoreFile string `json:"core_file,omitempty"`

	// AttachPID attaches to a running process.
	AttachPID int `json:"proc_id,omitempty"`

	// CommandFile executes debugger commands from the given file.
	CommandFile string `json:"command,omitempty"`

	// SourceDir adds a directory to the source file search path.
	SourceDir string `json:"source_dir,omitempty"`

	// Args are the arguments passed to the inferior program.
	Args []string `json:"args,omitempty"`

	// TTY redirects the inferior's input/output to the given terminal.
	TTY string `json:"tty,omitempty"`

	// GDBPath overrides the debugger binary to launch.
	GDBPath string `json:"gdb_path,omitempty"`
}

// Validate checks that the configuration is internally consistent.
func (c *LaunchConfig) Validate() error {
	if len(c.Args) > 0 && c.Program == "" {
		return fmt.Errorf("%w: inferior arguments require a program", ErrInvalidConfig)
	}
	if c.AttachPID != 0 && c.CoreFile != "" {
		return fmt.Errorf("%w: attaching to a process and analyzing a core file are mutually exclusive", ErrInvalidConfig)
	}
	if c.AttachPID < 0 {
		return fmt.Errorf("%w: attach PID must be positive", ErrInvalidConfig)
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("%w: baud rate must be positive", ErrInvalidConfig)
	}
	return nil
}

// commandLine translates the configuration into debugger argv flags.
// The MI interpreter flag is always present; everything else follows the
// configuration.
func (c *LaunchConfig) commandLine() []string {
	args := []string{"--interpreter=mi2"}

	if c.NoInitFile {
		args = append(args, "--nh")
	}
	if c.NoAnyInitFiles {
		args = append(args, "--nx")
	}
	if c.Quiet {
		args = append(args, "-q")
	}
	if c.WorkingDir != "" {
		args = append(args, "--cd="+c.WorkingDir)
	}
	if c.BaudRate > 0 {
		args = append(args, "-b", strconv.Itoa(c.BaudRate))
	}
	if c.SymbolFile != "" {
		args = append(args, "--symbols="+c.SymbolFile)
	}
	if c.CoreFile != "" {
		args = append(args, "--core="+c.CoreFile)
	}
	if c.AttachPID > 0 {
		args = append(args, "--pid="+strconv.Itoa(c.AttachPID))
	}
	if c.CommandFile != "" {
		args = append(args, "--command="+c.CommandFile)
	}
	if c.SourceDir != "" {
		args = append(args, "--directory="+c.SourceDir)
	}
	if c.TTY != "" {
		args = append(args, "--tty="+c.TTY)
	}

	// --args must come last: it consumes the program path and everything
	// after it.
	if len(c.Args) > 0 {
		args = append(args, "--args", c.Program)
		args = append(args, c.Args...)
	} else if c.Program != "" {
		args = append(args, c.Program)
	}

	return args
}
