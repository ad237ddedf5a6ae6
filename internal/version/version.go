// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package version carries build-time version information, injected via
// -ldflags.
package version

import (
	"strconv"
	"time"
)

const DevelopmentVersion = "dev"

var (
	ProductVersion = DevelopmentVersion
	CommitHash     = ""
	BuildTimestamp = ""
)

type VersionOutput struct {
	Version    string `json:"version"`
	CommitHash string `json:"commitHash,omitempty"`
	BuildTime  string `json:"buildTimestamp,omitempty"`
}

// Version returns the build's version information. BuildTimestamp is a
// Unix timestamp string when set by the build.
func Version() VersionOutput {
	out := VersionOutput{
		Version:    ProductVersion,
		CommitHash: CommitHash,
	}
	if BuildTimestamp != "" {
		if parsed, err := strconv.ParseInt(BuildTimestamp, 10, 64); err == nil {
			out.BuildTime = time.Unix(parsed, 0).UTC().Format(time.RFC3339)
		}
	}
	return out
}
