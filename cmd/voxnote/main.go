// Command voxnote is the entry point for the voxnote transcription bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/voxnote/voxnote/internal/config"
	"github.com/voxnote/voxnote/internal/health"
	"github.com/voxnote/voxnote/internal/messenger"
	"github.com/voxnote/voxnote/internal/notes"
	"github.com/voxnote/voxnote/internal/observe"
	"github.com/voxnote/voxnote/pkg/provider/summarize"
	antsummarize "github.com/voxnote/voxnote/pkg/provider/summarize/anthropic"
	oasummarize "github.com/voxnote/voxnote/pkg/provider/summarize/openai"
	"github.com/voxnote/voxnote/pkg/provider/transcribe"
	"github.com/voxnote/voxnote/pkg/provider/transcribe/deepgram"
	oatranscribe "github.com/voxnote/voxnote/pkg/provider/transcribe/openai"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// Default models per summarization backend when the config names none.
const (
	defaultOpenAISummaryModel    = "gpt-4o-mini"
	defaultAnthropicSummaryModel = "claude-3-5-haiku-latest"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	envPath := flag.String("env", "", "optional .env file loaded before the configuration")
	flag.Parse()

	// ── Environment file ──────────────────────────────────────────────────────
	// A missing default .env is fine; an explicitly named one must exist.
	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			fmt.Fprintf(os.Stderr, "voxnote: load env file %q: %v\n", *envPath, err)
			return 1
		}
	} else {
		_ = godotenv.Load()
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxnote: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxnote starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxnote",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	transcriber, err := reg.CreateTranscriber(cfg.Providers.Transcription)
	if err != nil {
		slog.Error("failed to create transcription provider",
			"name", cfg.Providers.Transcription.Name, "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "transcription", "name", cfg.Providers.Transcription.Name)

	var summarizer summarize.Provider
	if cfg.Summary.Enabled {
		summarizer, err = reg.CreateSummarizer(cfg.Providers.Summarization)
		if err != nil {
			slog.Error("failed to create summarization provider",
				"name", cfg.Providers.Summarization.Name, "err", err)
			return 1
		}
		slog.Info("provider created", "kind", "summarization", "name", cfg.Providers.Summarization.Name)
	}

	// ── Bot and pipeline ──────────────────────────────────────────────────────
	bot, err := messenger.New(cfg.Discord.Token)
	if err != nil {
		slog.Error("failed to create bot", "err", err)
		return 1
	}

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	pipeline, err := notes.NewPipeline(notes.Config{
		Transcriber:      transcriber,
		TranscriberName:  cfg.Providers.Transcription.Name,
		Summarizer:       summarizer,
		SummarizerName:   cfg.Providers.Summarization.Name,
		Downloader:       messenger.NewAttachmentDownloader(nil),
		Replier:          messenger.NewChannelReplier(bot.Session()),
		Metrics:          metrics,
		WorkDir:          cfg.WorkDir,
		SummaryEnabled:   cfg.Summary.Enabled,
		SummaryThreshold: cfg.Summary.Threshold,
	})
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}

	handler := messenger.NewHandler(ctx, pipeline)
	if err := bot.Open(handler); err != nil {
		slog.Error("failed to connect bot", "err", err)
		return 1
	}

	printStartupSummary(cfg)

	// ── HTTP server: health probes and Prometheus metrics ─────────────────────
	mux := http.NewServeMux()
	health.New(health.GatewayChecker(bot.Connected)).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return bot.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		slog.Info("shutdown signal received, stopping…")
		if err := bot.Close(); err != nil {
			slog.Warn("bot close error", "err", err)
		}
		// Let in-flight voice notes finish before the process exits.
		handler.Wait()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("voxnote ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the provider factories that ship with
// voxnote into reg. Each factory receives a config.ProviderEntry and
// constructs the provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Transcription ─────────────────────────────────────────────────────────

	reg.RegisterTranscriber(config.TranscriberOpenAI, func(entry config.ProviderEntry) (transcribe.Provider, error) {
		var opts []oatranscribe.Option
		if entry.BaseURL != "" {
			opts = append(opts, oatranscribe.WithBaseURL(entry.BaseURL))
		}
		return oatranscribe.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterTranscriber(config.TranscriberDeepgram, func(entry config.ProviderEntry) (transcribe.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithBaseURL(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	// ── Summarization ─────────────────────────────────────────────────────────

	reg.RegisterSummarizer(config.SummarizerOpenAI, func(entry config.ProviderEntry) (summarize.Provider, error) {
		model := entry.Model
		if model == "" {
			model = defaultOpenAISummaryModel
		}
		var opts []oasummarize.Option
		if entry.BaseURL != "" {
			opts = append(opts, oasummarize.WithBaseURL(entry.BaseURL))
		}
		return oasummarize.New(entry.APIKey, model, opts...)
	})

	reg.RegisterSummarizer(config.SummarizerAnthropic, func(entry config.ProviderEntry) (summarize.Provider, error) {
		model := entry.Model
		if model == "" {
			model = defaultAnthropicSummaryModel
		}
		var opts []antsummarize.Option
		if entry.BaseURL != "" {
			opts = append(opts, antsummarize.WithBaseURL(entry.BaseURL))
		}
		return antsummarize.New(entry.APIKey, model, opts...)
	})
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         voxnote — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Transcription", cfg.Providers.Transcription.Name, cfg.Providers.Transcription.Model)
	if cfg.Summary.Enabled {
		printProvider("Summarization", cfg.Providers.Summarization.Name, cfg.Providers.Summarization.Model)
		fmt.Printf("║  Threshold    : %-22d ║\n", cfg.Summary.Threshold)
	} else {
		fmt.Printf("║  Summarization: %-22s ║\n", "(disabled)")
	}
	fmt.Printf("║  Listen addr  : %-22s ║\n", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if model != "" {
		value = name + " / " + model
	}
	if len(value) > 22 {
		value = value[:19] + "…"
	}
	fmt.Printf("║  %-13s: %-22s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
