// Command richedit runs the editing core from the shell.
//
// Usage:
//
//	richedit sanitize [file]             # print the stored form of an HTML fragment
//	richedit check [file]                # report danger, change and emptiness as JSON
//	richedit export -format text [file]  # convert to markdown (default) or text
//	richedit serve -config richedit.yaml # run the HTTP playground
//	richedit mcp                         # serve the MCP tools over stdio
//
// Commands reading a fragment take it from file or, without one, stdin.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/richedit/config"
	"github.com/hazyhaar/richedit/docstore"
	"github.com/hazyhaar/richedit/env/rodlayout"
	"github.com/hazyhaar/richedit/export"
	"github.com/hazyhaar/richedit/sanitize"
	"github.com/hazyhaar/richedit/server"
	"github.com/hazyhaar/richedit/sink"
	"github.com/hazyhaar/richedit/upload"
)

const version = "0.1.0"

func main() {
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Usage = usage
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, flag.Args()); err != nil {
		logger.Error("richedit: fatal", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: richedit [-log-level level] sanitize|check|export|serve|mcp [flags] [file]")
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "sanitize":
		return runSanitize(rest, os.Stdout)
	case "check":
		return runCheck(rest, os.Stdout)
	case "export":
		return runExport(rest, os.Stdout)
	case "serve":
		return runServe(ctx, logger, rest)
	case "mcp":
		return runMCP(ctx, logger)
	}
	usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func readInput(args []string) (string, error) {
	var r io.Reader = os.Stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	return string(data), err
}

func runSanitize(args []string, w io.Writer) error {
	in, err := readInput(args)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, sanitize.ForOutput(in))
	return err
}

func runCheck(args []string, w io.Writer) error {
	in, err := readInput(args)
	if err != nil {
		return err
	}
	clean := sanitize.ForOutput(in)
	return json.NewEncoder(w).Encode(map[string]any{
		"dangerous": sanitize.LooksDangerous(in),
		"changed":   clean != in,
		"empty":     sanitize.IsEmpty(clean),
	})
}

func runExport(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "markdown", "markdown or text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in, err := readInput(fs.Args())
	if err != nil {
		return err
	}
	var out string
	switch *format {
	case "markdown", "md":
		if out, err = export.Markdown(in); err != nil {
			return err
		}
	case "text", "txt":
		out = export.PlainText(in)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func runServe(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to richedit.yaml")
	addr := fs.String("addr", "", "listen address (overrides config)")
	chrome := fs.String("chrome", "", "measure layout in Chrome: a DevTools URL, or \"local\" to launch one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return err
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	store, err := docstore.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	uploads, err := upload.New(cfg.Server.UploadDir, cfg.Server.PublicPrefix,
		upload.WithMaxBytes(cfg.Server.MaxUpload),
		upload.WithLogger(logger))
	if err != nil {
		return err
	}

	opts := server.Options{
		Config:  cfg,
		Store:   store,
		Uploads: uploads,
		Logger:  logger,
		Sinks:   func() []sink.Sink { return cfg.BuildSinks(os.Stdout, logger) },
	}
	if *chrome != "" {
		rc := rodlayout.Config{Logger: logger}
		if *chrome != "local" {
			rc.RemoteURL = *chrome
		}
		m, err := rodlayout.New(rc)
		if err != nil {
			return err
		}
		defer m.Close()
		opts.Layout = m
	}

	srv := server.New(opts)
	go srv.Run(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("richedit: listening", "addr", cfg.Server.Addr, "store", cfg.Store.Path)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		srv.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("richedit: shutdown", "error", err)
	}
	srv.Close()
	return nil
}

func runMCP(ctx context.Context, logger *slog.Logger) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "richedit", Version: version}, nil)
	server.RegisterMCP(srv, logger)
	logger.Info("richedit: mcp on stdio")
	err := srv.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
