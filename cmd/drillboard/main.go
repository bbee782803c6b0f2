package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/courtlab/drillboard/internal/api"
	"github.com/courtlab/drillboard/internal/autosave"
	"github.com/courtlab/drillboard/internal/config"
	"github.com/courtlab/drillboard/internal/dispatcher"
	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/handlers"
	"github.com/courtlab/drillboard/internal/logging"
	"github.com/courtlab/drillboard/internal/monitor"
	"github.com/courtlab/drillboard/internal/presets"
	"github.com/courtlab/drillboard/internal/session"
	"github.com/courtlab/drillboard/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "drillboard"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// DBLogger is handed to the gorm backends and the dispatcher
	DBLogger zerolog.Logger

	SessionStartTime time.Time = time.Now()

	// Services
	drillSession    *session.Context
	handlerService  *handlers.Service
	eventDispatcher *dispatcher.Dispatcher
	storageBackend  storage.Backend
	autosaver       *autosave.Saver
	monitorService  *monitor.Service

	logFile *os.File
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	args := os.Args[2:]
	switch strings.ToLower(os.Args[1]) {
	case "serve":
		err = runServe(args)
	case "setupdb":
		err = runSetupDB(args)
	case "codegen":
		err = runCodegen(args, os.Stdout)
	case "scene":
		err = runScene(args, os.Stdout)
	case "convert":
		err = runConvert(args, os.Stdout)
	case "send":
		err = runSend(args, os.Stdout)
	case "version":
		fmt.Printf("%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
	case "help", "-h", "--help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `usage: %s <command> [flags]

commands:
  serve      run the editor session and its HTTP API
  setupdb    migrate the configured storage backend
  codegen    print the court_framework script of a drill file
  scene      print the 3D scene of a drill file as JSON
  convert    convert a drill file between semantic and snapshot
  send       send an editor command to a running server
  version    print the version
`, AppName)
}

// loadConfig reads the config file from dir, falling back to defaults.
// A missing file is not an error.
func loadConfig(dir string) error {
	if dir == "" {
		config.LoadDefaults()
		return nil
	}
	if err := config.Load(dir); err != nil {
		config.LoadDefaults()
		return err
	}
	return nil
}

// setupLogging builds the slog and zerolog sinks from the loaded config.
func setupLogging(provider logging.ContextProvider) {
	level := viper.GetString("logLevel")

	var file io.Writer
	if viper.GetBool("logToFile") {
		f, err := logging.OpenLogFile(viper.GetString("logsDir"), AppName, SessionStartTime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			logFile = f
			file = f
		}
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{
		Level:   level,
		Console: os.Stdout,
		File:    file,
		JSON:    viper.GetBool("logJSON"),
		Context: provider,
	})
	Logger = SlogManager.Logger()

	var zw io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if file != nil {
		zw = zerolog.MultiLevelWriter(zw, file)
	}
	DBLogger = logging.NewZerolog(zw, level)
}

func newSession() *session.Context {
	grid := config.GetGridConfig()
	return session.NewContext(engine.New(document.New(), engine.Options{
		Frame:         config.GetFrame(),
		Path:          config.GetPathParams(),
		Snap:          grid.Snap,
		GridFrequency: grid.Frequency,
	}))
}

func runServe(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	listen := fs.String("listen", "", "override api.listen")
	presetsFile := fs.String("presets", "", "quick placement table (YAML)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgErr := loadConfig(*configDir)
	if *listen != "" {
		viper.Set("api.listen", *listen)
	}

	drillSession = newSession()
	setupLogging(drillSession.LogAttrs)
	if cfgErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}
	if logFile != nil {
		defer logFile.Close()
		Logger.Info("Logging to file", "path", logFile.Name())
	}

	table := presets.Default()
	if *presetsFile != "" {
		data, err := os.ReadFile(*presetsFile)
		if err != nil {
			return fmt.Errorf("failed to read presets: %w", err)
		}
		if table, err = presets.Parse(data); err != nil {
			return err
		}
		Logger.Info("Loaded presets", "path", *presetsFile, "roles", len(table.Roles))
	}

	var err error
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(DBLogger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	handlerService = handlers.NewService(handlers.Dependencies{
		Session:    drillSession,
		Presets:    table,
		LogManager: SlogManager,
	})
	handlerService.Register(eventDispatcher)
	Logger.Info("Command handlers registered", "commands", eventDispatcher.Commands())

	if err := initStorage(); err != nil {
		Logger.Error("Storage unavailable, drills will not persist", "error", err)
	} else {
		defer closeStorage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := startAutosave(ctx); err != nil {
		Logger.Warn("Autosave restore failed", "error", err)
	}

	startMonitor()
	defer monitorService.Stop()

	srv := &http.Server{
		Addr: viper.GetString("api.listen"),
		Handler: api.NewServer(api.Dependencies{
			Session:    drillSession,
			Dispatcher: eventDispatcher,
			Backend:    storageBackend,
			Trajectory: config.GetTrajectoryConstants(),
			Logger:     SlogManager.Component("api"),
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Logger.Info("Listening", "addr", srv.Addr, "version", CurrentVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		Logger.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Error("Server shutdown failed", "error", err)
	}
	if autosaver != nil {
		if err := autosaver.Close(shutdownCtx); err != nil {
			Logger.Error("Final autosave failed", "error", err)
		}
	}
	Logger.Info("Stopped", "revision", drillSession.Revision())
	return nil
}

// startAutosave restores the last autosaved drill and starts watching the
// session. It is a no-op without a backend or when disabled.
func startAutosave(ctx context.Context) error {
	cfg := config.GetAutosaveConfig()
	if !cfg.Enabled || storageBackend == nil {
		Logger.Info("Autosave disabled")
		return nil
	}
	autosaver = autosave.New(drillSession, storageBackend, cfg, SlogManager.Component("autosave"))
	restored, err := autosaver.Restore(ctx)
	autosaver.Start()
	if err != nil {
		return err
	}
	Logger.Info("Autosave started", "key", autosaver.Key(), "restored", restored)
	return nil
}

func startMonitor() {
	cfg := config.GetStatusConfig()
	deps := monitor.Dependencies{
		Session:    drillSession,
		Dispatcher: eventDispatcher,
		Backend:    storageBackend,
		LogManager: SlogManager,
		StatusFile: cfg.File,
		Interval:   cfg.Interval,
	}
	// a nil *Saver must not end up in the interface
	if autosaver != nil {
		deps.Autosave = autosaver
	}
	monitorService = monitor.NewService(deps)
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start status monitor", "error", err)
	}
}

func runSetupDB(args []string) error {
	fs := pflag.NewFlagSet("setupdb", pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfgErr := loadConfig(*configDir)
	setupLogging(nil)
	if cfgErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	}

	if err := initStorage(); err != nil {
		return err
	}
	closeStorage()
	Logger.Info("DB setup complete.", "type", config.GetStorageConfig().Type)
	return nil
}
