// Package main is the fitgoalz command line client.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/fitgoalz/fitgoalz/internal/apiclient"
	"github.com/fitgoalz/fitgoalz/internal/config"
	"github.com/fitgoalz/fitgoalz/internal/credstore"
	"github.com/fitgoalz/fitgoalz/internal/fitness"
	"github.com/fitgoalz/fitgoalz/internal/metrics"
)

const pushTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run wires the client from the environment and executes one command.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		return 0
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "fitgoalz: %v\n", err)
		return 1
	}

	logger := initLogger(cfg, stderr)

	store, err := credstore.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open credential store",
			slog.String("store", cfg.CredentialStore),
			slog.String("error", sanitizeError(err, cfg.RedisURL, cfg.DatabaseURL)),
		)
		fmt.Fprintf(stderr, "fitgoalz: cannot open %s credential store\n", cfg.CredentialStore)
		return 1
	}
	defer store.Close()

	var (
		recorder metrics.Recorder = metrics.NewNoop()
		registry *prometheus.Registry
	)
	if cfg.MetricsPushURL != "" {
		registry = prometheus.NewRegistry()
		prom, err := metrics.NewPrometheus(registry)
		if err != nil {
			logger.Warn("metrics disabled", slog.String("error", err.Error()))
		} else {
			recorder = prom
		}
	}

	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.BaseURL(),
		Prefix:  cfg.Prefix(),
		Timeout: cfg.RequestTimeout,
	}, store,
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(recorder),
	)

	a := &app{
		svc:    fitness.NewService(client, logger),
		stdout: stdout,
		logger: logger,
	}

	cmd, cmdArgs, ok := lookup(args)
	if !ok {
		fmt.Fprintf(stderr, "fitgoalz: unknown command %q\n\n", strings.Join(args, " "))
		printUsage(stderr)
		return 1
	}

	err = cmd.run(ctx, a, cmdArgs)

	if registry != nil {
		pushMetrics(registry, cfg, logger)
	}

	if err != nil {
		logger.Debug("command failed", slog.String("command", cmd.name), slog.String("error", err.Error()))
		fmt.Fprintln(stderr, apiclient.UserMessage(err, cmd.action))
		return 1
	}
	return 0
}

// pushMetrics sends the client metrics of this invocation to a Pushgateway.
// Failures are logged and never change the exit code.
func pushMetrics(reg *prometheus.Registry, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	err := push.New(cfg.MetricsPushURL, "fitgoalz_cli").
		Gatherer(reg).
		Grouping("profile", cfg.Profile).
		PushContext(ctx)
	if err != nil {
		logger.Warn("failed to push metrics",
			slog.String("url", redactURL(cfg.MetricsPushURL)),
			slog.String("error", sanitizeError(err, cfg.MetricsPushURL)),
		)
	}
}

// initLogger builds the slog logger. CLI logs go to stderr so stdout stays
// machine-readable.
func initLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
