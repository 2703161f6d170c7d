// Command kvhub-server starts a kvhub key-value server: flags select a
// config file and allow overriding its network address, then the
// server runs until interrupted or closed. Adapted from the teacher
// framework's example binaries, which wired flags straight into
// redhub.Options; here the flags feed package config, and the command
// dispatch itself lives in package kvhub rather than an inline
// switch statement.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kvhub/kvhub"
	"github.com/kvhub/kvhub/config"
	"github.com/kvhub/kvhub/engine"
	"github.com/kvhub/kvhub/logging"
)

func main() {
	var configPath string
	var addr string
	var multicore bool
	var reusePort bool
	var maxConnections int
	var pprofDebug bool
	var pprofAddr string

	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&addr, "addr", "", "server address, overrides config (e.g. 127.0.0.1:9876)")
	flag.BoolVar(&multicore, "multicore", false, "force multicore event loops on")
	flag.BoolVar(&reusePort, "reusePort", false, "force SO_REUSEPORT on")
	flag.IntVar(&maxConnections, "maxConnections", 0, "override max simultaneous connections (0 = config default)")
	flag.BoolVar(&pprofDebug, "pprofDebug", false, "enable pprof debugging")
	flag.StringVar(&pprofAddr, "pprofAddr", ":8888", "pprof address")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("kvhub-server: %v", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if multicore {
		cfg.Multicore = true
	}
	if reusePort {
		cfg.ReusePort = true
	}
	if maxConnections > 0 {
		cfg.MaxConnections = maxConnections
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("kvhub-server: building logger: %v", err)
	}
	defer logger.Sync()

	if pprofDebug {
		go func() {
			logger.Info("pprof listening", zap.String("addr", pprofAddr))
			_ = http.ListenAndServe(pprofAddr, nil)
		}()
	}

	opts := kvhub.Options{
		Multicore:       cfg.Multicore,
		ReusePort:       cfg.ReusePort,
		MaxConnections:  int64(cfg.MaxConnections),
		TLSListenEnable: cfg.TLS.Enable,
		TLSCertFile:     cfg.TLS.CertFile,
		TLSKeyFile:      cfg.TLS.KeyFile,
		TLSAddr:         cfg.TLS.Addr,
		Logger:          logger,
	}

	eng := engine.New()
	srv := kvhub.NewServer(eng, opts)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		if err := srv.Close(); err != nil {
			logger.Warn("error during shutdown", zap.Error(err))
		}
	}()

	protoAddr := fmt.Sprintf("tcp://%s", cfg.Addr)
	logger.Info("starting kvhub-server", zap.String("addr", protoAddr))
	if err := srv.ListenAndServe(protoAddr, opts); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}
