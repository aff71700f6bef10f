package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/config"
	"github.com/i474232898/virtual-mascot/internal/events"
	"github.com/i474232898/virtual-mascot/internal/generation"
	"github.com/i474232898/virtual-mascot/internal/history"
	"github.com/i474232898/virtual-mascot/internal/httpclient"
	"github.com/i474232898/virtual-mascot/internal/logging"
	"github.com/i474232898/virtual-mascot/internal/mascot"
	"github.com/i474232898/virtual-mascot/internal/scheduler"
	"github.com/i474232898/virtual-mascot/internal/store"
	"github.com/i474232898/virtual-mascot/internal/translate"
	"github.com/i474232898/virtual-mascot/internal/weather"
	"github.com/i474232898/virtual-mascot/internal/weather/providers"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg     *config.AppConfig
	log     zerolog.Logger
	bus     *events.Bus
	inbox   *store.MemoryStore
	history *history.FileStore
	weather *weather.Service
	mascot  *mascot.Mascot
	orch    *chat.TurnOrchestrator
	sched   *scheduler.Scheduler

	unsubscribe func()
}

// loadApp reads the configuration and builds the application.
func loadApp(ctx context.Context, logOut io.Writer) (*app, error) {
	bootLog := logging.New(logOut, "info", false)
	cfg, err := config.Load(configPath, bootLog)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logging.New(logOut, cfg.Log.Level, cfg.Log.Pretty))
}

func newApp(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*app, error) {
	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	translator := translate.NewGoogleTranslator(httpClient, cfg.Translation.BaseURL)

	provs, err := buildProviders(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	weatherSvc := weather.NewService(
		weather.NewCache(cfg.WeatherCacheInterval(), nil),
		provs,
		translator,
		logging.Component(log, "weather"),
	)

	gen, err := buildGenerator(ctx, cfg, httpClient, translator, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		bus:     events.NewBus(),
		inbox:   store.NewMemoryStore(cfg.MaxHistoryEntries, 0),
		history: history.NewFileStore(cfg.HistoryFile, cfg.MaxHistoryEntries, logging.Component(log, "history")),
		weather: weatherSvc,
		mascot: mascot.New(mascot.Bounds{
			ScreenWidth:  cfg.Mascot.ScreenWidth,
			ScreenHeight: cfg.Mascot.ScreenHeight,
			SpriteWidth:  cfg.Mascot.SpriteWidth,
			SpriteHeight: cfg.Mascot.SpriteHeight,
		}, mascot.DefaultDurations, logging.Component(log, "mascot")),
	}
	a.unsubscribe = a.bus.Subscribe(a.inbox.Save)

	systemPrompt := cfg.Generation.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = chat.DefaultSystemPrompt
	}

	a.orch, err = chat.NewTurnOrchestrator(chat.OrchestratorConfig{
		Assembler:       chat.NewContextAssembler(cfg.ContextTurns, systemPrompt),
		History:         a.history,
		Weather:         weatherSvc,
		Generator:       gen,
		Publisher:       a.bus,
		DefaultLocation: cfg.DefaultLocation,
		MaxInFlight:     cfg.MaxInFlight,
		TurnTimeout:     cfg.TurnTimeout,
		OnExpressionHint: func(text string) {
			a.mascot.React(text)
		},
		Logger: logging.Component(log, "orchestrator"),
	})
	if err != nil {
		a.mascot.Close()
		return nil, err
	}

	schedCfg := scheduler.Config{
		BlinkInterval:    cfg.Mascot.BlinkInterval,
		WanderInterval:   cfg.Mascot.WanderInterval,
		PrefetchInterval: cfg.WeatherCacheInterval(),
		PrefetchTimeout:  cfg.TurnTimeout,
	}
	if cfg.WeatherPrefetch {
		schedCfg.Prefetch = weatherSvc
		schedCfg.Location = cfg.DefaultLocation
	}
	a.sched = scheduler.New(a.mascot, schedCfg, logging.Component(log, "scheduler"))

	return a, nil
}

func buildProviders(cfg *config.AppConfig, client *http.Client) ([]weather.Provider, error) {
	var provs []weather.Provider
	for _, name := range cfg.WeatherProviders {
		switch name {
		case "openweathermap":
			provs = append(provs, providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey, ""))
		case "weatherapi":
			provs = append(provs, providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey, ""))
		case "openmeteo":
			provs = append(provs, providers.NewOpenMeteoProvider(client, "", ""))
		default:
			return nil, fmt.Errorf("unknown weather provider %q", name)
		}
	}
	return provs, nil
}

func buildGenerator(ctx context.Context, cfg *config.AppConfig, client *http.Client, translator chat.Translator, log zerolog.Logger) (chat.Generator, error) {
	var gen chat.Generator
	switch cfg.Generation.Backend {
	case "gemini":
		g, err := generation.NewGeminiGenerator(ctx, cfg.Generation.GeminiAPIKey, cfg.Generation.GeminiModel)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		// Local completion servers are much slower than the other collaborators.
		completionClient := &http.Client{
			Timeout:   cfg.Generation.Timeout,
			Transport: client.Transport,
		}
		backoff := httpclient.DefaultBackoff
		backoff.MaxRetries = cfg.Generation.MaxRetries
		gen = generation.NewCompletionGenerator(completionClient, cfg.Generation.CompletionURL,
			generation.WithRendering(generation.Rendering(cfg.Generation.Rendering)),
			generation.WithMaxPromptRunes(cfg.Generation.MaxPromptRunes),
			generation.WithBackoff(backoff),
		)
	}

	if cfg.Generation.Translate {
		fallback := translate.NewFallback(translator, cfg.Translation.FallbackRunes, logging.Component(log, "translate"))
		gen = generation.NewTranslating(gen, fallback)
	}
	return gen, nil
}

func (a *app) start() error {
	return a.sched.Start()
}

// close stops background work. In-flight turns finish first so their events
// and history writes are not lost.
func (a *app) close() {
	a.sched.Stop()
	a.orch.Close()
	a.mascot.Close()
	a.unsubscribe()
}
