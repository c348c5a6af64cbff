package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/config"
	"github.com/eliteGoblin/focusd/cam_mon/internal/infra"
	"github.com/eliteGoblin/focusd/cam_mon/internal/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor daemon in the foreground",
	Long: `Runs the daily monitor loop: prune old clips, wait for today's directory,
watch it for finished clips and play them on the alert scene, and check
dependency health periodically. Stops cleanly on SIGINT or SIGTERM.

Refuses to start when the configuration has errors.`,
	RunE: runDaemon,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load and validate the configuration, then exit",
	Long:  `Prints configuration warnings and errors. Exits with status 2 when there are errors.`,
	RunE:  runCheckConfig,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Long:  `Prints defaults merged with the config file and CAMMON_* environment overrides. The OBS password is masked.`,
	RunE:  runConfigShow,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one retention sweep now",
	Long: `Deletes clips older than monitor.retention_days under monitor.base_path and
prunes empty directories untouched for a day. Use --dry-run to only report.`,
	RunE: runSweep,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query dependency health once",
	Long: `Asks the configured supervisor whether each required dependency is running
and optionally connects to OBS. No alerts are sent. Exits with status 1 when
anything is down.`,
	RunE: runHealth,
}

var triggerCmd = &cobra.Command{
	Use:   "trigger <clip>",
	Short: "Play one clip on the alert scene",
	Long: `Runs the full alert sequence for a clip path as the daemon would:
load it (or the error clip when missing or empty), switch to the alert scene,
wait for playback to end, revert to standby and re-arm.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrigger,
}

var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Print or install the systemd unit",
	Long: `Prints the systemd unit that runs 'cammon run' for the current execution mode.
With --install, writes it (system unit as root, user unit otherwise) and reloads systemd.`,
	RunE: runUnit,
}

var (
	sweepDryRun  bool
	healthOBS    bool
	unitInstall  bool
	triggerAlert bool
)

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "Report what would be deleted without deleting")
	healthCmd.Flags().BoolVar(&healthOBS, "obs", false, "Also connect to OBS and report its version")
	unitCmd.Flags().BoolVar(&unitInstall, "install", false, "Write the unit file and reload systemd")
	triggerCmd.Flags().BoolVar(&triggerAlert, "alert", false, "Send the operator alert if playback fails")

	configCmd.AddCommand(configShowCmd)
}

func loadConfig() (*config.Config, string, bool, error) {
	path := resolveConfigPath()
	cfg, exists, err := config.Load(path)
	if err != nil {
		return nil, path, false, &exitError{code: 2, err: err}
	}
	return cfg, path, exists, nil
}

// cliLogger logs human-readable lines to stderr for one-shot commands.
func cliLogger() *zap.Logger {
	return infra.NewLogger(infra.LogOptions{Debug: debugLog})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, path, exists, err := loadConfig()
	if err != nil {
		return err
	}

	logFile := cfg.Monitor.LogFile
	if logFile == "" {
		logFile = infra.DetectExecMode().LogFile
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logger := infra.NewLogger(infra.LogOptions{File: logFile, Debug: debugLog, Console: true})
	defer func() { _ = logger.Sync() }()

	if !exists {
		logger.Warn("config file not found, using defaults", zap.String("path", path))
	}

	errs, warnings := cfg.Validate(infra.NewOSIdentityResolver())
	for _, w := range warnings {
		logger.Warn("config warning", zap.String("warning", w))
	}
	if len(errs) > 0 {
		for _, e := range errs {
			logger.Error("config error", zap.String("error", e))
		}
		return &exitError{code: 2, err: fmt.Errorf("invalid configuration %s: %d error(s)", path, len(errs))}
	}

	a := newApp(cfg, logger)
	defer a.Close()

	monitor, err := a.monitor()
	if err != nil {
		return err
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("cammon starting",
		zap.String("version", Version),
		zap.String("config", path),
		zap.String("watch_backend", cfg.Monitor.WatchBackend),
		zap.String("supervisor", cfg.Health.Supervisor),
		zap.String("notify", cfg.Notify.Backend))

	return monitor.Run(ctx)
}

func runCheckConfig(cmd *cobra.Command, args []string) error {
	cfg, path, exists, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Config: %s\n", path)
	if !exists {
		fmt.Fprintln(out, "(file not found, defaults and environment only)")
	}

	errs, warnings := cfg.Validate(infra.NewOSIdentityResolver())
	if len(errs)+len(warnings) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Level", "Message"}, findingRows(errs, warnings)))
	}
	if len(errs) > 0 {
		return &exitError{code: 2, err: fmt.Errorf("%d configuration error(s)", len(errs))}
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func findingRows(errs, warnings []string) [][]string {
	rows := make([][]string, 0, len(errs)+len(warnings))
	for _, w := range warnings {
		rows = append(rows, []string{"warning", w})
	}
	for _, e := range errs {
		rows = append(rows, []string{"error", e})
	}
	return rows
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.Render()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cliLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signalContext()
	defer stop()

	a := newApp(cfg, logger)
	result := a.sweeper(sweepDryRun).Sweep(ctx, cfg.Monitor.BasePath, cfg.Monitor.RetentionDays, time.Now())

	out := cmd.OutOrStdout()
	verb := "Deleted"
	if sweepDryRun {
		verb = "Would delete"
	}
	rows := make([][]string, 0, len(result.DeletedFiles)+len(result.DeletedDirs))
	for _, f := range result.DeletedFiles {
		rows = append(rows, []string{"file", f})
	}
	for _, d := range result.DeletedDirs {
		rows = append(rows, []string{"dir", d})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Type", "Path"}, rows))
	}
	fmt.Fprintf(out, "%s %d files, %d directories under %s in %dms\n",
		verb, len(result.DeletedFiles), len(result.DeletedDirs), result.Root, result.DurationMs)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "%d errors:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %v\n", e)
		}
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cliLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signalContext()
	defer stop()

	a := newApp(cfg, logger)
	defer a.Close()

	sup, err := a.supervisor()
	if err != nil {
		return err
	}
	// No notifier: this is an operator query, not a scheduled check.
	health := usecase.NewHealthMonitor(sup, nil, "", cfg.QueryTimeout(), logger)
	results := health.Check(ctx, cfg.Monitor.RequiredContainers)

	down := 0
	rows := make([][]string, 0, len(results)+1)
	for _, r := range results {
		status, detail := "running", ""
		if r.Err != nil {
			status, detail = "down", r.Err.Error()
			down++
		}
		rows = append(rows, []string{r.Name, sup.Kind(), status, detail})
	}

	if healthOBS {
		row, ok := obsHealthRow(ctx, a)
		if !ok {
			down++
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Kind", "Status", "Detail"}, rows))
	if down > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d dependencies down", down)}
	}
	return nil
}

func obsHealthRow(ctx context.Context, a *app) ([]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout())
	defer cancel()

	name := net.JoinHostPort(a.cfg.OBS.Host, strconv.Itoa(a.cfg.OBS.Port))
	version, err := a.obsDialer().Version(ctx)
	if err != nil {
		return []string{name, "OBS WebSocket", "down", err.Error()}, false
	}
	return []string{name, "OBS WebSocket", "running",
		fmt.Sprintf("OBS %s, obs-websocket %s", version.OBSVersion, version.OBSWebSocketVersion)}, true
}

func runTrigger(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cliLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signalContext()
	defer stop()

	if !triggerAlert {
		cfg.Notify.Backend = "log"
	}
	a := newApp(cfg, logger)
	clip, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	if err := a.sceneController().Play(ctx, clip); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Played %s\n", clip)
	return nil
}

func runUnit(cmd *cobra.Command, args []string) error {
	execMode := infra.DetectExecMode()
	manager := infra.NewUnitManager(execMode)
	out := cmd.OutOrStdout()

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	cfgPath, err := filepath.Abs(resolveConfigPath())
	if err != nil {
		return err
	}

	if !unitInstall {
		content, err := manager.Render(execPath, cfgPath)
		if err != nil {
			return err
		}
		if manager.IsInstalled() {
			fmt.Fprintf(cmd.ErrOrStderr(), "# installed at %s\n", manager.UnitPath())
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "# not installed (expected at %s)\n", manager.UnitPath())
		}
		_, err = out.Write(content)
		return err
	}

	if execPath != execMode.BinaryPath {
		fmt.Fprintf(out, "Note: unit will run %s (conventional location is %s)\n", execPath, execMode.BinaryPath)
	}

	ctx, stop := signalContext()
	defer stop()

	if !manager.NeedsUpdate(execPath, cfgPath) {
		fmt.Fprintf(out, "Unit %s is up to date\n", manager.UnitPath())
		return nil
	}
	verb := "Installed"
	if manager.IsInstalled() {
		verb = "Updated"
	}
	if err := manager.Install(ctx, execPath, cfgPath); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("install %s: %w (run with sudo for a system unit)", manager.UnitPath(), err)
		}
		return fmt.Errorf("install %s: %w", manager.UnitPath(), err)
	}

	fmt.Fprintf(out, "%s %s (%s mode)\n", verb, manager.UnitPath(), execMode.Mode)
	if execMode.Mode == infra.ExecModeUser {
		fmt.Fprintf(out, "Enable with: systemctl --user enable --now %s\n", infra.UnitName)
	} else {
		fmt.Fprintf(out, "Enable with: systemctl enable --now %s\n", infra.UnitName)
	}
	return nil
}
