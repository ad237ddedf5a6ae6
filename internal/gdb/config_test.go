// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      LaunchConfig
		expected []string
	}{
		{
			name:     "bare debugger",
			cfg:      LaunchConfig{},
			expected: []string{"--interpreter=mi2"},
		},
		{
			name:     "program only",
			cfg:      LaunchConfig{Program: "/bin/app"},
			expected: []string{"--interpreter=mi2", "/bin/app"},
		},
		{
			name: "program with inferior arguments",
			cfg:  LaunchConfig{Program: "/bin/app", Args: []string{"-x", "input.txt"}},
			expected: []string{
				"--interpreter=mi2", "--args", "/bin/app", "-x", "input.txt",
			},
		},
		{
			name: "init file suppression and quiet",
			cfg:  LaunchConfig{NoInitFile: true, NoAnyInitFiles: true, Quiet: true},
			expected: []string{
				"--interpreter=mi2", "--nh", "--nx", "-q",
			},
		},
		{
			name: "attach to process",
			cfg:  LaunchConfig{AttachPID: 4242, SymbolFile: "/bin/app.dbg"},
			expected: []string{
				"--interpreter=mi2", "--symbols=/bin/app.dbg", "--pid=4242",
			},
		},
		{
			name: "core dump analysis",
			cfg:  LaunchConfig{Program: "/bin/app", CoreFile: "/tmp/core.1234"},
			expected: []string{
				"--interpreter=mi2", "--core=/tmp/core.1234", "/bin/app",
			},
		},
		{
			name: "everything else",
			cfg: LaunchConfig{
				Program:     "/bin/app",
				WorkingDir:  "/src",
				BaudRate:    9600,
				CommandFile: "/src/setup.gdb",
				SourceDir:   "/src/lib",
				TTY:         "/dev/pts/3",
			},
			expected: []string{
				"--interpreter=mi2", "--cd=/src", "-b", "9600",
				"--command=/src/setup.gdb", "--directory=/src/lib",
				"--tty=/dev/pts/3", "/bin/app",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, test.cfg.commandLine())
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("zero config is valid", func(t *testing.T) {
		t.Parallel()
		cfg := LaunchConfig{}
		require.NoError(t, cfg.Validate())
	})

	t.Run("args without program", func(t *testing.T) {
		t.Parallel()
		cfg := LaunchConfig{Args: []string{"-x"}}
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("attach and core file are exclusive", func(t *testing.T) {
		t.Parallel()
		cfg := LaunchConfig{AttachPID: 42, CoreFile: "/tmp/core"}
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("attach alongside program is allowed", func(t *testing.T) {
		t.Parallel()
		cfg := LaunchConfig{AttachPID: 42, Program: "/bin/app"}
		require.NoError(t, cfg.Validate())
	})

	t.Run("negative attach PID", func(t *testing.T) {
		t.Parallel()
		cfg := LaunchConfig{AttachPID: -1}
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("negative baud rate", func(t *testing.T) {
		t.Parallel()
		cfg := LaunchConfig{BaudRate: -300}
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}
