package weather

import (
	"context"
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
// The query is an ASCII place name.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query string) (Reading, error)
}
