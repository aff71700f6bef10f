package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxInFlight bounds concurrently running turns.
const DefaultMaxInFlight = 4

// OrchestratorConfig carries the collaborators and tunables of a TurnOrchestrator.
type OrchestratorConfig struct {
	Router    *IntentRouter
	Assembler *ContextAssembler
	History   HistoryStore
	Weather   WeatherLookup
	Generator Generator
	Publisher Publisher

	DefaultLocation string
	MaxInFlight     int
	// TurnTimeout bounds one worker run; zero disables it.
	TurnTimeout time.Duration

	// OnExpressionHint is called synchronously with every non-empty input.
	OnExpressionHint func(text string)

	Logger zerolog.Logger
	Now    func() time.Time
}

// TurnOrchestrator routes submitted messages, runs lookups and generation on
// worker goroutines and publishes the outcome.
type TurnOrchestrator struct {
	router          *IntentRouter
	assembler       *ContextAssembler
	history         HistoryStore
	weather         WeatherLookup
	generator       Generator
	publisher       Publisher
	defaultLocation string
	turnTimeout     time.Duration
	onExpression    func(string)
	log             zerolog.Logger
	now             func() time.Time

	sem    *semaphore.Weighted
	seq    atomic.Uint64
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	stop   context.CancelFunc
}

// NewTurnOrchestrator validates the configuration and creates an orchestrator.
func NewTurnOrchestrator(cfg OrchestratorConfig) (*TurnOrchestrator, error) {
	if cfg.History == nil || cfg.Weather == nil || cfg.Generator == nil || cfg.Publisher == nil {
		return nil, errors.New("orchestrator requires history, weather, generator and publisher")
	}
	if cfg.Router == nil {
		cfg.Router = NewIntentRouter()
	}
	if cfg.Assembler == nil {
		cfg.Assembler = NewContextAssembler(DefaultContextTurns, DefaultSystemPrompt)
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, stop := context.WithCancel(context.Background())
	return &TurnOrchestrator{
		router:          cfg.Router,
		assembler:       cfg.Assembler,
		history:         cfg.History,
		weather:         cfg.Weather,
		generator:       cfg.Generator,
		publisher:       cfg.Publisher,
		defaultLocation: cfg.DefaultLocation,
		turnTimeout:     cfg.TurnTimeout,
		onExpression:    cfg.OnExpressionHint,
		log:             cfg.Logger,
		now:             cfg.Now,
		sem:             semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		ctx:             ctx,
		stop:            stop,
	}, nil
}

// Submit accepts one message from the presentation layer. It never blocks on
// network calls: weather and chat turns are handed to a worker goroutine and
// their results arrive through the Publisher.
func (o *TurnOrchestrator) Submit(text string) (Submission, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Submission{}, ErrEmptyInput
	}
	sub := Submission{
		ID:  uuid.NewString(),
		Seq: o.seq.Add(1),
	}

	if o.onExpression != nil {
		o.onExpression(text)
	}

	sub.Intent = o.router.Classify(text)
	log := o.log.With().Str("message_id", sub.ID).Uint64("seq", sub.Seq).Str("intent", string(sub.Intent.Kind)).Logger()

	if sub.Intent.Kind == IntentExit {
		log.Info().Msg("exit requested")
		o.publish(sub, EventExit, "")
		return sub, nil
	}

	o.mu.RLock()
	if o.closed {
		o.mu.RUnlock()
		return sub, ErrClosed
	}
	o.wg.Add(1)
	o.mu.RUnlock()

	go o.run(sub, text, log)

	log.Debug().Msg("turn dispatched")
	return sub, nil
}

// Close stops accepting work and waits for every dispatched turn to finish.
func (o *TurnOrchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.wg.Wait()
	o.stop()
}

func (o *TurnOrchestrator) run(sub Submission, text string, log zerolog.Logger) {
	defer o.wg.Done()

	if err := o.sem.Acquire(o.ctx, 1); err != nil {
		log.Warn().Err(err).Msg("turn dropped before start")
		o.publish(sub, EventError, err.Error())
		return
	}
	defer o.sem.Release(1)

	// A turn publishes exactly one outcome, even if a later step panics.
	settled := false
	settle := func(kind EventKind, payload string) {
		settled = true
		o.publish(sub, kind, payload)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bool("settled", settled).Msg("turn panicked")
			if !settled {
				o.publish(sub, EventError, fmt.Sprintf("%v", r))
			}
		}
	}()

	ctx := o.ctx
	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}

	started := o.now()
	switch sub.Intent.Kind {
	case IntentWeather:
		o.handleWeather(ctx, sub.Intent.Location, settle, log)
	default:
		if err := o.handleChat(ctx, text, settle, log); err != nil {
			log.Error().Err(err).Msg("turn failed")
			settle(EventError, err.Error())
			return
		}
	}
	log.Debug().Dur("elapsed", o.now().Sub(started)).Msg("turn completed")
}

func (o *TurnOrchestrator) handleWeather(ctx context.Context, location string, settle func(EventKind, string), log zerolog.Logger) {
	if location == "" {
		location = o.defaultLocation
	}
	log.Debug().Str("location", location).Msg("weather lookup")

	summary := o.weather.Lookup(ctx, location)
	settle(EventNewMessage, FormatWeatherMessage(location, summary))
}

func (o *TurnOrchestrator) handleChat(ctx context.Context, text string, settle func(EventKind, string), log zerolog.Logger) error {
	recent := o.history.Recent(ctx, o.assembler.Limit())
	prompt := o.assembler.Build(recent, text)

	response, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrGeneration) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	now := o.now()
	settle(EventNewMessage, FormatChatMessage(now, text, response))

	turn := Turn{Timestamp: now, Input: text, Response: response}
	if err := o.history.Append(ctx, turn); err != nil {
		log.Error().Err(err).Msg("failed to save conversation")
	}
	return nil
}

func (o *TurnOrchestrator) publish(sub Submission, kind EventKind, payload string) {
	o.publisher.Publish(DisplayEvent{
		Kind:      kind,
		Payload:   payload,
		MessageID: sub.ID,
		Seq:       sub.Seq,
		At:        o.now(),
	})
}

// FormatWeatherMessage renders the weather branch result for display.
func FormatWeatherMessage(location, summary string) string {
	return fmt.Sprintf("[天気情報] %s: %s", location, summary)
}

// FormatChatMessage renders a completed chat exchange for display.
func FormatChatMessage(at time.Time, input, response string) string {
	hm := at.Format("15:04")
	return fmt.Sprintf("[%s] あなた\n👹: %s\n[%s] マスコット\n🐱: %s", hm, input, hm, response)
}
