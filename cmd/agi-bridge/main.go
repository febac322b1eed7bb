// Package main provides the entry point for the AGI bridge server.
// The server accepts connections from a telephony switch speaking the
// Asterisk Gateway Interface protocol: one connection per active call,
// a variable-block handshake, then a synchronous command/response cycle
// until hangup, timeout, or stream end.
//
// Usage:
//
//	agi-bridge [flags]
//
// Flags:
//
//	--listen string     AGI listen address (default ":4573")
//	--timeout int       Idle timeout in milliseconds (default 5000)
//	--max-connections   Maximum concurrent sessions (default unlimited)
//	--debug             Enable debug logging
//
// Every flag can also be supplied through the environment (AGI_LISTEN,
// AGI_TIMEOUT, AGI_MAX_CONNECTIONS, AGI_DEBUG); flags take precedence.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/go-agi/go-agi-bridge/lib/bridge"
	"github.com/go-agi/go-agi-bridge/lib/session"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Build info
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := bridge.FromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("invalid environment configuration")
	}

	listen := pflag.String("listen", cfg.ListenAddr, "AGI listen address")
	timeout := pflag.Int64("timeout", cfg.IdleTimeout.Milliseconds(), "idle timeout in milliseconds")
	maxConns := pflag.Int("max-connections", cfg.MaxConnections, "maximum concurrent sessions (0 = unlimited)")
	debug := pflag.Bool("debug", cfg.Debug, "enable debug logging")
	pflag.Parse()

	cfg.ListenAddr = *listen
	cfg.IdleTimeout = time.Duration(*timeout) * time.Millisecond
	cfg.MaxConnections = *maxConns
	cfg.Debug = *debug
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	// Configure logging
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	log.WithFields(logrus.Fields{
		"version":   Version,
		"buildTime": BuildTime,
		"commit":    GitCommit,
	}).Info("Starting AGI bridge server")

	registry := session.NewRegistry(cfg.RecentSessions)

	server, err := bridge.NewServer(cfg, registry, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutting down")
		if err := server.Close(); err != nil {
			log.WithError(err).Error("Shutdown error")
		}
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("Server error")
			os.Exit(1)
		}
	}

	log.Info("AGI bridge server stopped")
}
