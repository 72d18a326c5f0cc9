// Command xbdmd runs the XBDM server: it listens on port 730, serving
// each connection out of a disk-backed sandbox rooted at -root, and
// optionally exposes a stats endpoint for observability.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/GoobyCorp/xbdm-go/internal/config"
	"github.com/GoobyCorp/xbdm-go/internal/logging"
	"github.com/GoobyCorp/xbdm-go/internal/sandbox"
	"github.com/GoobyCorp/xbdm-go/internal/stats"
	"github.com/GoobyCorp/xbdm-go/server"
)

func main() {
	if err := run(os.Args[1:], os.Getenv); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, getenv func(string) string) error {
	fs := flag.NewFlagSet("xbdmd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	defaultAddr := strings.TrimSpace(getenv("XBDM_ADDR"))
	if defaultAddr == "" {
		defaultAddr = server.DefaultAddr
	}

	addr := fs.String("addr", defaultAddr, "XBDM listen address")
	root := fs.String("root", "./xbdm-root", "sandbox root directory on disk")
	configPath := fs.String("config", "", "optional JSON console-identity config file")
	statsAddr := fs.String("stats-addr", "", "optional HTTP address for the /stats endpoint")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "text", "log format: text, json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := logging.Configure(*logLevel, *logFormat, os.Stderr)
	if err != nil {
		return fmt.Errorf("xbdmd: %w", err)
	}
	logging.SetDefault(logger)

	fsys, err := sandbox.NewLocal(*root)
	if err != nil {
		return fmt.Errorf("xbdmd: sandbox: %w", err)
	}

	var cfg config.Provider
	if *configPath != "" {
		fp, err := config.LoadFile(*configPath)
		if err != nil {
			return fmt.Errorf("xbdmd: config: %w", err)
		}
		cfg = fp
	} else {
		cfg = config.Default()
	}

	srv := server.New(*addr, fsys, cfg)
	srv.Logger = logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if *statsAddr != "" {
		hub := stats.NewHub()
		srv.Stats = hub
		ws := stats.NewWebServer(*statsAddr, hub, logger)
		go ws.Start(ctx)
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("xbdmd: %w", err)
	}
	return nil
}
