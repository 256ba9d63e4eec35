// dragwatchd watches the pointer and the clipboard to recognize
// file-drag intent. It runs one pointer tracker, a shake-gesture
// trigger, and an optimistic drag-intent detector, and serves state
// to local clients over a control socket.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dragwatch/internal/clipboard"
	"dragwatch/internal/config"
	"dragwatch/internal/dragdetect"
	"dragwatch/internal/health"
	"dragwatch/internal/ipc"
	"dragwatch/internal/logging"
	"dragwatch/internal/metrics"
	"dragwatch/internal/pointer"
)

const version = "0.1.0"

var (
	configPath  = flag.String("config", "", "path to config file (default: platform config dir)")
	logLevel    = flag.String("log-level", "", "override configured log level")
	simulate    = flag.Bool("simulate", false, "force the simulated pointer backend")
	checkConfig = flag.Bool("check-config", false, "validate configuration and exit")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("dragwatchd %s\n", version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dragwatchd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, created, err := config.LoadOrCreate(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *simulate {
		cfg.Tracker.Backend = "simulated"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if *checkConfig {
		fmt.Println("configuration OK")
		return nil
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer log.Close()

	log.Info("starting", "version", version, "pid", os.Getpid(), "backend", cfg.Tracker.Backend)
	if created {
		log.Info("wrote default configuration", "path", config.ConfigPath())
	}

	registry := metrics.NewRegistry()
	var mset *metrics.Set
	if cfg.Metrics.Enabled {
		mset = metrics.NewSet(registry)
	}

	// Pointer source. "auto" prefers the platform hook and falls back
	// to the simulated source when the hook reports unavailable (no
	// permission, headless session).
	source, backend := selectSource(cfg, log)

	tracker := pointer.NewTracker(source, log,
		pointer.WithMetrics(mset),
		pointer.WithAccountingInterval(time.Duration(cfg.Tracker.AccountingIntervalMs)*time.Millisecond))
	if err := tracker.Start(); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}
	defer tracker.Destroy()

	probe := clipboard.NewPlatformProbe(log, mset)

	detector := dragdetect.NewDetector(probe, log,
		dragdetect.WithMetrics(mset),
		dragdetect.WithIntervals(
			time.Duration(cfg.Drag.PollIntervalMs)*time.Millisecond,
			time.Duration(cfg.Drag.SessionTimeoutMs)*time.Millisecond))
	detector.Start()
	defer detector.Destroy()

	// The shake gesture is the activation trigger: rapid horizontal
	// reversals while the pointer moves are read as the start of a
	// drag.
	if cfg.Shake.Enabled {
		shake := pointer.NewShakeDetector(pointer.ShakeConfig{
			MinReversals: cfg.Shake.MinReversals,
			Window:       time.Duration(cfg.Shake.WindowMs) * time.Millisecond,
			MinSpeed:     cfg.Shake.MinSpeedPxSec,
		}, detector.ActivateOptimistically)
		defer tracker.OnPosition(shake.Feed)()
	}

	checker := health.NewChecker()
	checker.RegisterFunc("tracker", true, health.TrackingCheck(tracker.IsTracking))
	checker.RegisterFunc("source", false, health.SourceCheck(source.Available))
	checker.RegisterFunc("sample_rate", false, health.SampleRateCheck(func() float64 {
		return tracker.PerformanceMetrics().SampleHz
	}))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	var server *ipc.Server
	if cfg.IPC.Enabled {
		handler := &ipc.DaemonHandler{
			Version:   version,
			StartedAt: time.Now(),
			Backend:   backend,
			Tracker:   tracker,
			Detector:  detector,
			Prober:    probe,
			Health:    checker,
			Metrics:   registry,
			RequestShutdown: func() {
				select {
				case shutdown <- syscall.SIGTERM:
				default:
				}
			},
		}

		server = ipc.NewServer(ipc.ServerConfig{
			SocketPath:     cfg.IPC.SocketPath,
			ReadTimeout:    time.Duration(cfg.IPC.TimeoutSec) * time.Second,
			MaxConnections: cfg.IPC.MaxConnections,
		}, handler, log)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start ipc: %w", err)
		}

		// Drag lifecycle flows to subscribed clients.
		defer detector.OnDragStart(func() {
			server.Broadcast(&ipc.Event{Type: ipc.EventDragStart, Timestamp: time.Now()})
		})()
		defer detector.OnDragEnd(func(s dragdetect.Session) {
			server.Broadcast(&ipc.Event{
				Type:      ipc.EventDragEnd,
				Timestamp: time.Now(),
				Data:      ipc.DragEndEvent{Session: ipc.SessionInfo(s)},
			})
		})()
		defer detector.OnFilesDetected(func(paths []string) {
			server.Broadcast(&ipc.Event{
				Type:      ipc.EventFilesDetected,
				Timestamp: time.Now(),
				Data:      ipc.FilesDetectedEvent{FilePaths: paths},
			})
		})()
	}

	// Configuration hot reload. Only the drag intervals and log level
	// apply without a restart; backend changes need one.
	loader := config.NewLoader(configFilePath())
	if _, err := loader.Load(); err == nil {
		loader.OnChange(func(next *config.Config) {
			log.Info("configuration reloaded")
			applyReload(log, detector, next)
			if server != nil {
				server.Broadcast(&ipc.Event{Type: ipc.EventConfigChanged, Timestamp: time.Now()})
			}
		})
		if err := loader.Watch(); err != nil {
			log.Warn("config watch unavailable", "error", err)
		}
		go func() {
			for err := range loader.Errors() {
				log.Warn("config reload failed", "error", err)
			}
		}()
		defer loader.Close()
	}

	checker.SetReady(true)
	log.Info("ready", "backend", backend, "shake", cfg.Shake.Enabled, "ipc", cfg.IPC.Enabled)

	sig := <-shutdown
	log.Info("shutting down", "signal", sig.String())

	checker.SetReady(false)
	if server != nil {
		if err := server.Stop(); err != nil {
			log.Warn("ipc stop", "error", err)
		}
	}

	return nil
}

func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	return logging.New(&logging.Config{
		Level:      level,
		Format:     format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    int64(cfg.Logging.MaxSizeMB),
		MaxBackups: cfg.Logging.MaxBackups,
		Component:  "dragwatchd",
	})
}

// selectSource resolves the configured backend to a pointer source.
func selectSource(cfg *config.Config, log *logging.Logger) (pointer.Source, string) {
	if cfg.Tracker.Backend == "simulated" {
		return pointer.NewSimulatedSource(), "simulated"
	}

	hook := pointer.NewHookSource(log)
	if ok, detail := hook.Available(); !ok {
		log.Warn("platform hook unavailable, falling back to simulated source", "detail", detail)
		return pointer.NewSimulatedSource(), "simulated"
	}
	return hook, "hook"
}

func applyReload(log *logging.Logger, detector *dragdetect.Detector, next *config.Config) {
	detector.SetIntervals(
		time.Duration(next.Drag.PollIntervalMs)*time.Millisecond,
		time.Duration(next.Drag.SessionTimeoutMs)*time.Millisecond)
	log.Info("drag intervals updated",
		"poll_ms", next.Drag.PollIntervalMs,
		"timeout_ms", next.Drag.SessionTimeoutMs)
}

func configFilePath() string {
	if *configPath != "" {
		return *configPath
	}
	return config.ConfigPath()
}
