package chat

import "errors"

var (
	// ErrConfigMissing is returned when a required setting (e.g. an API key) is absent.
	ErrConfigMissing = errors.New("configuration missing")
	ErrTranslation   = errors.New("translation failed")
	ErrWeatherFetch  = errors.New("weather fetch failed")
	ErrGeneration    = errors.New("generation failed")
	ErrHistoryRead   = errors.New("history read failed")
	ErrHistoryWrite  = errors.New("history write failed")

	// ErrEmptyInput is returned by Submit for blank messages.
	ErrEmptyInput = errors.New("empty input")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("orchestrator closed")
)
