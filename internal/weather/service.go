package weather

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/common"
)

// Languages used to turn a Japanese place name into a provider query.
const (
	SourceLang = "ja"
	QueryLang  = "en"
)

// Service answers weather questions from the cache, falling back to the
// providers in order.
type Service struct {
	cache      *Cache
	providers  []Provider
	translator chat.Translator
	log        zerolog.Logger
}

// NewService creates a new Service. translator may be nil when only ASCII
// place names are expected.
func NewService(cache *Cache, providers []Provider, translator chat.Translator, log zerolog.Logger) *Service {
	return &Service{
		cache:      cache,
		providers:  providers,
		translator: translator,
		log:        log,
	}
}

// Lookup returns the summary for location. Failures are rendered into the
// returned text and never cached.
func (s *Service) Lookup(ctx context.Context, location string) string {
	summary, err := s.cache.GetOrFetch(ctx, location, s.fetch)
	if err != nil {
		s.log.Warn().Err(err).Str("location", location).Msg("weather lookup failed")
		return FailureMessage(err)
	}
	return summary
}

// Prefetch refreshes location unless its cache entry is still fresh.
func (s *Service) Prefetch(ctx context.Context, location string) error {
	_, err := s.cache.GetOrFetch(ctx, location, s.fetch)
	return err
}

func (s *Service) fetch(ctx context.Context, location string) (string, error) {
	if len(s.providers) == 0 {
		return "", fmt.Errorf("%w: no weather providers configured", chat.ErrConfigMissing)
	}

	query, err := s.query(ctx, location)
	if err != nil {
		return "", err
	}

	var errs []error
	for _, p := range s.providers {
		r, err := p.Fetch(ctx, query)
		if err != nil {
			s.log.Debug().Err(err).Str("provider", p.Name()).Str("query", query).Msg("provider fetch failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		s.log.Debug().Str("provider", p.Name()).Str("query", query).Msg("weather fetched")
		return r.Summary(), nil
	}

	return "", errors.Join(errs...)
}

// query returns an ASCII provider query for location.
func (s *Service) query(ctx context.Context, location string) (string, error) {
	if !common.HasNonASCII(location) {
		return location, nil
	}
	if s.translator == nil {
		return "", fmt.Errorf("%w: no translator for %q", chat.ErrTranslation, location)
	}

	q, err := s.translator.Translate(ctx, location, SourceLang, QueryLang)
	if err != nil {
		if errors.Is(err, chat.ErrTranslation) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", chat.ErrTranslation, err)
	}
	return q, nil
}

var _ chat.WeatherLookup = (*Service)(nil)
