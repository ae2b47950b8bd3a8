// Package main is the CLI entry point for kioskd.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/liftops/kioskd/internal/config"
	"github.com/liftops/kioskd/internal/daemon"
	"github.com/liftops/kioskd/internal/domain"
	"github.com/liftops/kioskd/internal/infra"
	"github.com/liftops/kioskd/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "1.0.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kioskd",
	Short: "Kiosk shell hosting the indicator and bar-code applications",
	Long: `kioskd launches the configured applications, reparents their windows
into the kiosk layout, and keeps them embedded for as long as it runs.
Crashed applications are relaunched automatically.`,
	Version: Version,
	RunE:    runKiosk,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath string
	jsonOutput bool
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "kioskd.yaml", "Path to the kiosk configuration file")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(versionCmd)
}

func runKiosk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := createLogger(cfg.LogPath)
	defer func() { _ = logger.Sync() }()

	logger.Info("kioskd starting",
		zap.String("version", Version),
		zap.Int("apps", len(cfg.Apps)))

	windowSystem, err := infra.NewWindowSystem()
	if err != nil {
		return fmt.Errorf("window system: %w", err)
	}
	shell, err := infra.NewShell(cfg.Layout.TopHeight)
	if err != nil {
		return fmt.Errorf("kiosk shell: %w", err)
	}

	settings := infra.NewClientSettingsStore(cfg.Settings.ClientPath, cfg.Settings.ControlPath)
	state := daemon.NewKioskState()

	apps := make([]domain.HostedApp, 0, len(cfg.Apps))
	overlays := make([]*daemon.OverlayBlocker, 0, len(cfg.Apps))
	for _, app := range cfg.Apps {
		apps = append(apps, domain.HostedApp{
			Title:  app.Title,
			Path:   app.Path,
			Region: app.Region,
			Fill:   app.FillPolicy(),
		})

		surface, err := infra.NewOverlaySurface("kioskd-overlay-" + app.Region)
		if err != nil {
			return fmt.Errorf("overlay surface %s: %w", app.Region, err)
		}
		overlays = append(overlays, daemon.NewOverlayBlocker(
			daemon.DefaultOverlayConfig(), app.Region, surface,
			windowSystem, shell, state, logger))
	}

	controllerConfig := daemon.DefaultControllerConfig()
	if cfg.Layout.CalibrationTopHeight > 0 {
		controllerConfig.CalibrationTopHeight = cfg.Layout.CalibrationTopHeight
	}
	if cfg.Layout.CalibrationBottomHeight > 0 {
		controllerConfig.CalibrationBottomHeight = cfg.Layout.CalibrationBottomHeight
	}

	controller := daemon.NewController(
		controllerConfig,
		daemon.DefaultGuardianConfig(),
		daemon.DefaultMonitorConfig(),
		apps,
		daemon.ControllerDeps{
			State:        state,
			Locator:      usecase.NewLocator(usecase.DefaultLocatorConfig(), windowSystem, logger),
			Embedder:     usecase.NewEmbedder(usecase.DefaultEmbedderConfig(), windowSystem, logger),
			WindowSystem: windowSystem,
			Regions:      shell,
			Launcher:     infra.NewLauncher(),
			Processes:    infra.NewProcessManager(),
			Settings:     settings,
			Status:       infra.NewLogStatusSink(logger),
			Overlays:     overlays,
		},
		logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	watcher := infra.NewControlWatcher(cfg.Settings.ControlPath, settings, logger)
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("control watcher stopped", zap.Error(err))
		}
	}()

	if err := controller.Start(ctx); err != nil {
		// A partial startup still leaves guardians and monitors running;
		// the failed app surfaced through the status sink already.
		logger.Error("startup incomplete", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("kioskd shutting down")
	controller.Wait()
	return nil
}

func createLogger(path string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("kioskd %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
