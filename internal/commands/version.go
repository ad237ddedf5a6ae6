// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/Satone7/mcp-server-gdb/internal/version"
)

func NewVersionCommand(log logr.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints version information",
		Long:  `Prints version information.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			versionStr, err := versionString()
			if err != nil {
				log.Error(err, "Could not serialize version information")
				return err
			}
			fmt.Println(versionStr)
			return nil
		},
	}
}

func versionString() (string, error) {
	encoded, err := json.Marshal(version.Version())
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
