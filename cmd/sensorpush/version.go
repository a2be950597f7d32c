package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Go      string `json:"go"`
}

func versionInfo() VersionInfo {
	info := VersionInfo{Version: Version, Go: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Commit = s.Value
			}
		}
	}
	return info
}

func NewCmdVersion(w io.Writer, rf *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No logger nor credentials needed
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return ValidateOutput(rf.Output)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			info := versionInfo()
			if rf.Output == JSONOutput {
				return printJSON(w, info)
			}
			if info.Commit != "" {
				_, err := fmt.Fprintf(w, "sensorpush %s (%s, %s)\n", info.Version, info.Commit, info.Go)
				return err
			}
			_, err := fmt.Fprintf(w, "sensorpush %s (%s)\n", info.Version, info.Go)
			return err
		},
	}
}
