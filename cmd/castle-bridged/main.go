package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/castle-go/internal/bridge"
	"github.com/yndnr/castle-go/internal/bridge/config"
	"github.com/yndnr/castle-go/internal/infra/buildinfo"
	"github.com/yndnr/castle-go/internal/infra/confloader"
	"github.com/yndnr/castle-go/internal/infra/shutdown"
	"github.com/yndnr/castle-go/internal/server/httpserver"
	"github.com/yndnr/castle-go/internal/server/localserver"
	"github.com/yndnr/castle-go/internal/telemetry/logger"
	"github.com/yndnr/castle-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("castle-bridged " + buildinfo.String())
		return nil
	}

	loader := confloader.NewLoader(confloader.WithConfigFile(*configFile))
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  os.Stdout,
		Service: "castle-bridged",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting castle-bridged",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log.Slog())

	reg := metric.NewRegistry()
	var watchdogTripped atomic.Bool
	opts := bridge.Options{
		Logger: log,
		OnWatchdog: func() {
			watchdogTripped.Store(true)
			shutdownHandler.Trigger("completion watchdog tripped")
		},
	}
	if cfg.Metrics.Enabled {
		opts.Registerer = reg
	}
	b, err := bridge.Open(cfg, opts)
	if err != nil {
		return fmt.Errorf("open bridge: %w", err)
	}
	shutdownHandler.OnShutdown("bridge", b.Shutdown)

	var probeErr atomic.Pointer[error]
	health := func() error {
		if err := b.Health(); err != nil {
			return err
		}
		if p := probeErr.Load(); p != nil {
			return *p
		}
		return nil
	}
	if cfg.Probe.Interval > 0 {
		stopProbe := startProbe(b, cfg.Probe, &probeErr, log)
		shutdownHandler.OnShutdown("probe", func(context.Context) error {
			stopProbe()
			return nil
		})
	}

	if cfg.Metrics.Enabled || cfg.Admin.Socket != "" {
		routerCfg := httpserver.DefaultRouterConfig()
		if cfg.Metrics.Enabled {
			routerCfg.Registry = reg
		}
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerCfg.Health = health
		routerCfg.Stats = func() any { return b.Conn.Stats() }
		routerCfg.Logger = log.With("component", "http").Slog()

		if cfg.Metrics.Enabled {
			srv := httpserver.New(cfg.Metrics.Addr, httpserver.NewRouter(routerCfg))
			if err := srv.Listen(); err != nil {
				b.Close()
				return fmt.Errorf("listen %s: %w", cfg.Metrics.Addr, err)
			}
			shutdownHandler.OnShutdown("http", srv.Shutdown)
			go func() {
				log.Info("operational endpoint listening", "addr", srv.Addr(), "metrics_path", cfg.Metrics.Path)
				if err := srv.Serve(); err != nil {
					log.Error("http server error", "error", err)
					shutdownHandler.Trigger("http server failed")
				}
			}()
		}

		if cfg.Admin.Socket != "" {
			local := *routerCfg
			local.RateLimit = 0
			local.Logger = log.With("component", "admin").Slog()
			admin := localserver.New(cfg.Admin.Socket, httpserver.NewRouter(&local))
			if err := admin.Listen(); err != nil {
				b.Close()
				return fmt.Errorf("listen %s: %w", cfg.Admin.Socket, err)
			}
			shutdownHandler.OnShutdown("admin socket", admin.Shutdown)
			go func() {
				log.Info("admin socket listening", "path", admin.Path())
				if err := admin.Serve(); err != nil {
					log.Error("admin socket error", "error", err)
					shutdownHandler.Trigger("admin socket failed")
				}
			}()
		}
	}

	if path := loader.FilePath(); path != "" {
		watcher, err := watchConfig(path, log)
		if err != nil {
			log.Warn("config reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("castle-bridged started",
		"connection_id", b.Conn.ID(),
		"queue_capacity", cfg.Queue.Capacity,
		"watchdog", cfg.Watchdog.Period)

	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if watchdogTripped.Load() {
		return errors.New("completion watchdog tripped")
	}
	log.Info("castle-bridged stopped")
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(loader *confloader.Loader) (*config.BridgeConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig applies log level changes from the configuration file. Other
// settings take effect on restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.OnChange(func(string) {
		cfg, err := loadConfig(confloader.NewLoader(confloader.WithConfigFile(path)))
		if err != nil {
			log.Warn("ignoring invalid configuration change", "error", err)
			return
		}
		want, _ := logger.ParseLevel(cfg.Log.Level)
		if name := strings.ToLower(want.String()); name != logger.GetLevel() {
			logger.SetLevel(name)
			log.Info("log level changed", "level", name)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}

// startProbe runs the canary round trip every interval and records the last
// failure for the health check.
func startProbe(b *bridge.Bridge, cfg config.ProbeSection, last *atomic.Pointer[error], log logger.Logger) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
			case <-done:
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			err := b.Probe(ctx)
			cancel()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = fmt.Errorf("probe timed out after %s", cfg.Timeout)
				}
				log.Warn("pipeline probe failed", "error", err)
				last.Store(&err)
				continue
			}
			if last.Swap(nil) != nil {
				log.Info("pipeline probe recovered")
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
