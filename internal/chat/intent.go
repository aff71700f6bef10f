package chat

import (
	"regexp"
	"strings"

	"github.com/i474232898/virtual-mascot/internal/common"
)

var (
	// ExitKeywords end the session when found anywhere in the input.
	ExitKeywords = []string{"exit", "bye", "quit", "ばいばい", "さようなら", "またあとで"}
	// WeatherKeywords route the input to the weather lookup.
	WeatherKeywords = []string{"天気", "weather", "気温"}

	placeWeatherPattern = regexp.MustCompile(`(.+?)の天気`)
	weatherInPattern    = regexp.MustCompile(`weather in ([A-Za-z ]+)`)
)

// IntentRouter classifies raw input by keyword matching.
type IntentRouter struct {
	exitKeywords    []string
	weatherKeywords []string
}

// NewIntentRouter creates a router with the default keyword sets.
func NewIntentRouter() *IntentRouter {
	return &IntentRouter{
		exitKeywords:    ExitKeywords,
		weatherKeywords: WeatherKeywords,
	}
}

// Classify returns Exit, Weather (with an optional location hint) or Chat.
// Matching is case-sensitive and exit keywords take precedence.
func (r *IntentRouter) Classify(text string) Intent {
	switch {
	case common.HasAny(text, r.exitKeywords...):
		return Intent{Kind: IntentExit}
	case common.HasAny(text, r.weatherKeywords...):
		return Intent{Kind: IntentWeather, Location: ExtractLocation(text)}
	default:
		return Intent{Kind: IntentChat}
	}
}

// ExtractLocation pulls a place name out of "<place>の天気" or
// "weather in <place>". It returns "" when neither pattern matches.
func ExtractLocation(text string) string {
	if m := placeWeatherPattern.FindStringSubmatch(text); m != nil {
		if loc := strings.TrimSpace(m[1]); loc != "" {
			return loc
		}
	}
	if m := weatherInPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
