package chat

import "context"

// Generator turns an assembled prompt into the mascot's reply.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Translator translates text between two language codes (e.g. "ja", "en").
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// WeatherLookup resolves a location to a displayable summary. It never fails:
// problems are rendered into the returned text.
type WeatherLookup interface {
	Lookup(ctx context.Context, location string) string
}

// HistoryStore is the durable, capped conversation log.
type HistoryStore interface {
	Append(ctx context.Context, turn Turn) error
	// Recent returns up to limit turns, oldest first. Read failures yield an empty slice.
	Recent(ctx context.Context, limit int) []Turn
	All(ctx context.Context) []Turn
}

// Publisher receives display events.
type Publisher interface {
	Publish(event DisplayEvent)
}
