// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package commands defines the CLI surface of the MCP debugger server.
package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Satone7/mcp-server-gdb/internal/gdb"
	"github.com/Satone7/mcp-server-gdb/internal/server"
	"github.com/Satone7/mcp-server-gdb/internal/version"
	"github.com/Satone7/mcp-server-gdb/pkg/logger"
)

const serverName = "mcp-server-gdb"

func NewRootCmd(log *logger.Logger) (*cobra.Command, error) {
	var (
		gdbPath        string
		commandTimeout time.Duration
		stopTimeout    time.Duration
		closeGrace     time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   serverName,
		Short: "MCP server exposing GDB debugging sessions as tools",
		Long: `mcp-server-gdb is an MCP (Model Context Protocol) server that manages
GDB debugging sessions. It speaks MCP over stdio and drives GDB through
its MI interface, exposing session management, execution control,
breakpoints, stack and variable inspection, register access and memory
reads as MCP tools.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), log, gdb.Options{
				GDBPath:        gdbPath,
				CommandTimeout: commandTimeout,
				StopTimeout:    stopTimeout,
				CloseGrace:     closeGrace,
			})
		},
	}

	rootCmd.Flags().StringVar(&gdbPath, "gdb-path", "", "Path to the GDB executable used when a session does not name one")
	rootCmd.Flags().DurationVar(&commandTimeout, "command-timeout", 0, "Maximum wait for a single GDB command result")
	rootCmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 0, "Maximum wait for the program to stop after an execution command")
	rootCmd.Flags().DurationVar(&closeGrace, "close-grace", 0, "How long to wait for GDB to exit before killing it on session close")
	log.AddLevelFlag(rootCmd.PersistentFlags())

	rootCmd.AddCommand(NewVersionCommand(log.Logger))

	return rootCmd, nil
}

func runServer(ctx context.Context, log *logger.Logger, opts gdb.Options) error {
	manager := gdb.NewManager(opts, nil, log.Logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		manager.Shutdown(shutdownCtx)
	}()

	log.Info("Starting server", "version", version.Version().Version)
	srv := server.NewServer(serverName, version.Version().Version, manager, log.Logger)
	return srv.Run(ctx)
}
