// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cloudstore-dev/cloudstore/internal/config"
	"github.com/cloudstore-dev/cloudstore/storageserver"
)

func main() {
	// a missing .env file is fine, the environment may be set elsewhere
	godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	server, err := storageserver.NewServerWithOptions(cfg.ToServerOptions(logger))
	if err != nil {
		logger.Error("couldn't start the server", "err", err)
		os.Exit(1)
	}
	defer server.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("couldn't listen", "addr", addr, "err", err)
		os.Exit(1)
	}

	go func() {
		if err := http.Serve(listener, server.HTTPHandler()); err != nil {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	logger.Info("server started", "addr", addr)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
