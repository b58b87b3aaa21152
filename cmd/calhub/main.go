package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calhub/internal/config"
	appLog "calhub/internal/log"
	"calhub/internal/registry"
	"calhub/internal/store"
	"calhub/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	watch      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(conf.LogLevel)

	policy, err := store.ParseEditPolicy(conf.EditPolicy)
	if err != nil {
		appLog.Error("bad edit_policy in config", err)
		os.Exit(1)
	}

	appLog.Info("calhub starting",
		"listen", conf.Listen,
		"default_timezone", conf.DefaultTimezone,
		"edit_policy", conf.EditPolicy,
		"watch", flags.watch,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	reg := registry.New(policy)
	server := web.NewServer(conf, reg)

	httpServer := &http.Server{
		Addr:              conf.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if flags.watch {
		go func() {
			// Hot reload only touches the log level; structural settings
			// (listen address, edit policy) need a restart.
			err := config.Watch(ctx, flags.configPath, func(c *config.Config) {
				appLog.SetLevel(c.LogLevel)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("config watch stopped", err)
			}
		}()
	}

	go func() {
		appLog.Info("http server listening", "addr", conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("http server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http shutdown failed", err)
	}
	appLog.Info("calhub exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/calhub/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.watch, "watch", false, "Reload config on file changes")

	flag.Parse()

	return cfg
}
