// Package main is the entry point for the stagehand server.
//
// stagehand catalogs a performer's songs and organizes them into show
// setlists, and exposes them as a JSON HTTP API. Configuration is read from
// CLI flags, a .env file in the data directory (deployment overrides and
// secrets) and config.yaml (account, session key, limits).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/stagehand/stagehand/internal/assistant"
	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/config"
	"github.com/stagehand/stagehand/internal/server"
	"github.com/stagehand/stagehand/internal/server/handlers"
	"github.com/stagehand/stagehand/internal/server/ipgeo"
	"github.com/stagehand/stagehand/internal/server/ratelimit"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/history"
	"github.com/stagehand/stagehand/internal/storage/jsonlstore"
	"github.com/stagehand/stagehand/internal/storage/mongostore"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "stagehand: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	hashPassword := flag.Bool("hash-password", false, "Read a password from stdin, print its bcrypt hash for config.yaml and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080)")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	storeKind := flag.String("store", "jsonl", "Document store: jsonl (files in the data directory) or mongo (MONGODB_URI)")
	geoDB := flag.String("geo-db", "", "Path to MaxMind MMDB file for IP geolocation (optional)")
	secureCookies := flag.Bool("secure-cookies", false, "Mark the session cookie Secure; enable behind HTTPS")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}
	if *hashPassword {
		return printPasswordHash(os.Stdin, os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	env, err := config.LoadEnv(*dataDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(*dataDir)
	if err != nil {
		return err
	}

	// Override with .env file values if not explicitly set via flags.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	override := func(name, key string, dst *string) {
		if !set[name] {
			if v := env[key]; v != "" {
				*dst = v
			}
		}
	}
	override("http", "HTTP", httpAddr)
	override("log-level", "LOG_LEVEL", logLevel)
	override("store", "STORE", storeKind)
	override("geo-db", "GEO_DB", geoDB)
	if !set["secure-cookies"] {
		if v := env["SECURE_COOKIES"]; v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("SECURE_COOKIES: %w", err)
			}
			*secureCookies = b
		}
	}

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	secret, err := cfg.Secret()
	if err != nil {
		return err
	}
	if !cfg.Auth.Enabled() {
		slog.WarnContext(ctx, "No account configured; the dashboard is unreachable", "file", filepath.Join(*dataDir, config.FileName))
	}

	svc := &handlers.Services{}
	var store storage.Store
	switch *storeKind {
	case "jsonl":
		js, err := jsonlstore.New(*dataDir)
		if err != nil {
			return err
		}
		repo, err := history.Open(*dataDir, "stagehand", "stagehand@localhost")
		if err != nil {
			return err
		}
		store = js
		svc.History = repo
		svc.DataFiles = js.Files()
	case "mongo":
		uri := lookup(env, "MONGODB_URI")
		if uri == "" {
			return errors.New("-store=mongo requires MONGODB_URI")
		}
		db := lookup(env, "MONGODB_DB")
		if db == "" {
			db = "stagehand"
		}
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		ms, err := mongostore.Open(openCtx, uri, db)
		cancel()
		if err != nil {
			return err
		}
		store = ms
	default:
		return fmt.Errorf("unknown store: %q", *storeKind)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("Failed to close store", "err", err)
		}
	}()
	svc.Catalog = catalog.New(store)

	if key := lookup(env, "GEMINI_API_KEY"); key != "" {
		g, err := assistant.NewGemini(ctx, key, cfg.Assistant.Model)
		if err != nil {
			return err
		}
		svc.Assistant = g
		slog.InfoContext(ctx, "Assistant enabled", "model", g.Model())
	}

	if *geoDB != "" {
		geoChecker, err := ipgeo.Open(*geoDB)
		if err != nil {
			return fmt.Errorf("failed to open geo database: %w", err)
		}
		defer func() { _ = geoChecker.Close() }()
		svc.IPGeo = geoChecker
		slog.InfoContext(ctx, "IP geolocation enabled", "db", *geoDB)
	}

	limits := ratelimit.New(ratelimit.Limits{
		LoginPerMin:     cfg.RateLimits.LoginPerMin,
		AssistantPerMin: cfg.RateLimits.AssistantPerMin,
		ReadPerMin:      cfg.RateLimits.ReadPerMin,
		WritePerMin:     cfg.RateLimits.WritePerMin,
	})
	defer limits.Close()

	// Watch own executable for modifications (for development restarts)
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	buildVersion, _, _, _ := getBuildInfo()
	srvCfg := &server.Config{
		Handlers: handlers.Config{
			JWTSecret:           secret,
			Auth:                cfg.Auth,
			SessionTTL:          cfg.Session.TTL,
			SecureCookies:       *secureCookies,
			MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
			Version:             buildVersion,
			Store:               *storeKind,
		},
		Limits: limits,
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(svc, srvCfg),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "store", *storeKind, "version", buildVersion)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

// lookup returns the .env value of key, falling back to the process
// environment.
func lookup(env map[string]string, key string) string {
	if v := env[key]; v != "" {
		return v
	}
	return os.Getenv(key)
}

func printPasswordHash(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = fmt.Fprintln(w, string(hash))
	return err
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("stagehand %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
