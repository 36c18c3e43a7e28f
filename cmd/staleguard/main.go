// Package main is the CLI entry point for staleguard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/staleguard/staleguard/internal/assets"
	"github.com/staleguard/staleguard/internal/config"
	"github.com/staleguard/staleguard/internal/detector"
	"github.com/staleguard/staleguard/internal/navigation"
	"github.com/staleguard/staleguard/internal/probe"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "staleguard",
	Short: "Watches a deployed web app and prompts to reload on new releases",
	Long: `staleguard polls a deployment endpoint for a version fingerprint
(ETag or Last-Modified) and prompts for a reload once the published
version diverges from the one this session started with. Same-origin
asset load failures are correlated against the probe to suppress
false positives from transient network issues.`,
	Version: Version,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch an endpoint for deployment changes",
	Long: `Runs a watcher against the configured endpoint until interrupted.
On a confirmed change you are prompted to reload; declining leaves the
watcher running at its normal cadence.`,
	RunE: runWatch,
}

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Probe an endpoint once and print its fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show process diagnostics for a running watcher",
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath    string
	watchURL      string
	watchInterval time.Duration
	watchSilent   bool
	ignorePattern string
	scanAssets    bool
	verbose       bool
	statusPID     int32
	jsonOutput    bool
)

func init() {
	watchCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Probe endpoint (overrides config)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Periodic re-probe cadence (0 = disabled)")
	watchCmd.Flags().BoolVar(&watchSilent, "silent", false, "Suppress diagnostic logging")
	watchCmd.Flags().StringVar(&ignorePattern, "ignore", "", "Regexp of navigation paths to bypass")
	watchCmd.Flags().BoolVar(&scanAssets, "scan-assets", false, "Check same-origin assets each cycle")
	watchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Development logging")

	statusCmd.Flags().Int32Var(&statusPID, "pid", int32(os.Getpid()), "PID of the watcher process")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := buildDetectorConfig(logger)
	if err != nil {
		return err
	}

	journal := navigation.NewJournal("/")
	cfg.Navigation = journal
	cfg.Reloader = detector.ReloadFunc(func() error {
		// The CLI host has no page to reload; surface the decision and
		// let the session owner act on it.
		logger.Info("reload accepted, restart your session to pick up the new version")
		return nil
	})

	watcher, err := detector.NewWatcher(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Setup(ctx); err != nil {
		return fmt.Errorf("failed to arm watcher: %w", err)
	}
	defer watcher.Teardown()

	if scanAssets {
		go runAssetScan(ctx, cfg, watcher, logger)
	}

	fmt.Printf("Watching %s (interval: %s). Press Ctrl-C to stop.\n",
		cfg.CheckPath, cfg.CheckInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("received shutdown signal")
	return nil
}

// buildDetectorConfig merges the config file and command-line flags,
// flags winning.
func buildDetectorConfig(logger *zap.Logger) (detector.Config, error) {
	var file *config.File
	if configPath != "" {
		var err error
		file, err = config.Load(configPath)
		if err != nil {
			return detector.Config{}, err
		}
	}

	endpoint := watchURL
	if endpoint == "" && file != nil {
		endpoint = file.CheckPath
	}
	if endpoint == "" {
		return detector.Config{}, fmt.Errorf("probe endpoint required (--url or config check_path)")
	}

	cfg := detector.DefaultConfig(endpoint)
	cfg.Logger = logger

	if file != nil {
		cfg.CheckInterval = file.CheckInterval.Std()
		cfg.Silent = file.Silent
		if file.AssetDebounce > 0 {
			cfg.AssetDebounce = file.AssetDebounce.Std()
		}
		if file.NotifyDebounce > 0 {
			cfg.NotifyDebounce = file.NotifyDebounce.Std()
		}
		pattern, err := file.IgnorePattern()
		if err != nil {
			return detector.Config{}, err
		}
		cfg.IgnorePaths = pattern
		if file.ScanAssets {
			scanAssets = true
		}
	}

	if watchInterval > 0 {
		cfg.CheckInterval = watchInterval
	}
	if watchSilent {
		cfg.Silent = true
	}
	if ignorePattern != "" {
		re, err := regexp.Compile(ignorePattern)
		if err != nil {
			return detector.Config{}, fmt.Errorf("invalid --ignore pattern: %w", err)
		}
		cfg.IgnorePaths = re
	}

	return cfg, nil
}

// runAssetScan periodically checks the page's same-origin assets and
// feeds failures into the watcher's correlation tally.
func runAssetScan(ctx context.Context, cfg detector.Config, watcher *detector.Watcher, logger *zap.Logger) {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}

	scanner := assets.NewScanner(logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refs, err := scanner.Scan(ctx, cfg.CheckPath)
			if err != nil {
				logger.Warn("asset scan failed", zap.Error(err))
				continue
			}
			scanner.Check(ctx, refs, watcher.ReportAssetFailure)
		}
	}
}

func runProbe(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), probe.DefaultTimeout)
	defer cancel()

	prober := probe.NewHeadProber(false, logger)
	fp := prober.Probe(ctx, args[0])
	if fp.IsZero() {
		fmt.Println("No fingerprint (endpoint unreachable or no ETag/Last-Modified)")
		return nil
	}

	fmt.Printf("Fingerprint: %s\n", fp)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	proc, err := process.NewProcess(statusPID)
	if err != nil {
		return fmt.Errorf("process %d not found: %w", statusPID, err)
	}

	fmt.Println("\n=== staleguard Status ===")
	fmt.Printf("PID: %d\n", statusPID)

	if name, err := proc.Name(); err == nil {
		fmt.Printf("Process: %s\n", name)
	}
	if createMs, err := proc.CreateTime(); err == nil {
		started := time.UnixMilli(createMs)
		fmt.Printf("Uptime: %s\n", time.Since(started).Round(time.Second))
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		fmt.Printf("RSS: %.1f MiB\n", float64(mem.RSS)/(1024*1024))
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		fmt.Printf("CPU: %.1f%%\n", cpu)
	}

	fmt.Println("=========================")
	return nil
}

func createLogger() *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("staleguard %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
