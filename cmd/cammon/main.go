// Package main is the CLI entry point for cammon.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/cam_mon/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cammon",
	Short: "Camera clip monitor - plays motion clips on an OBS alert scene",
	Long: `cammon watches the directory a camera uploads motion clips into, one
directory per calendar day, and plays each new clip on an OBS alert scene
before switching back to standby.

It also prunes clips past the retention period and alerts an operator when
the compositor or media server stops running.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath string
	debugLog   bool
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file (default depends on execution mode)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkConfigCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(unitCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfigPath returns --config or the execution mode default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return infra.DetectExecMode().ConfigPath
}

func runVersion(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if jsonOutput {
		data, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Fprintln(out, string(data))
		return
	}
	fmt.Fprintf(out, "cammon %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
}
