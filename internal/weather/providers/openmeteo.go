package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/httpclient"
	"github.com/i474232898/virtual-mascot/internal/weather"
)

const (
	OpenMeteoBaseURL    = "https://api.open-meteo.com/v1/forecast"
	OpenMeteoGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key: the place name is resolved with Open-Meteo's own
// geocoding endpoint before the forecast call.
type OpenMeteoProvider struct {
	name       string
	baseURL    string
	geocodeURL string
	client     *httpclient.Client
}

func NewOpenMeteoProvider(client *http.Client, baseURL, geocodeURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = OpenMeteoBaseURL
	}
	if geocodeURL == "" {
		geocodeURL = OpenMeteoGeocodeURL
	}
	return &OpenMeteoProvider{
		name:       "openmeteo",
		baseURL:    baseURL,
		geocodeURL: geocodeURL,
		client:     httpclient.New("openmeteo", client, httpclient.DefaultBackoff),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, query string) (weather.Reading, error) {
	pl, err := p.geocode(ctx, query)
	if err != nil {
		return weather.Reading{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", pl.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", pl.Longitude))
		values.Set("current", "temperature_2m,relative_humidity_2m,weather_code")
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: %w", chat.ErrWeatherFetch, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Current *struct {
			Time        string  `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: decoding openmeteo response: %w", chat.ErrWeatherFetch, err)
	}
	if payload.Current == nil {
		return weather.Reading{}, fmt.Errorf("%w: openmeteo response is missing current weather", chat.ErrWeatherFetch)
	}

	ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return weather.Reading{
		ProviderName: p.name,
		Name:         pl.Name,
		Description:  describeOpenMeteoCode(payload.Current.WeatherCode),
		TemperatureC: payload.Current.Temperature,
		HumidityPct:  payload.Current.Humidity,
		Timestamp:    ts,
	}, nil
}

func (p *OpenMeteoProvider) geocode(ctx context.Context, query string) (place, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", query)
		values.Set("count", "1")
		values.Set("language", "ja")
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", p.geocodeURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return place{}, fmt.Errorf("%w: geocoding %q: %w", chat.ErrWeatherFetch, query, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results []place `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return place{}, fmt.Errorf("%w: decoding geocoding response: %w", chat.ErrWeatherFetch, err)
	}
	if len(payload.Results) == 0 {
		return place{}, fmt.Errorf("%w: unknown place %q", chat.ErrWeatherFetch, query)
	}

	pl := payload.Results[0]
	if pl.Name == "" {
		pl.Name = query
	}
	return pl, nil
}

// describeOpenMeteoCode maps WMO weather codes (simplified) to Japanese text.
func describeOpenMeteoCode(code int) string {
	switch {
	case code == 0:
		return "快晴"
	case code >= 1 && code <= 2:
		return "晴れ"
	case code == 3:
		return "曇り"
	case code == 45 || code == 48:
		return "霧"
	case code >= 51 && code <= 57:
		return "霧雨"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return "雨"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "雪"
	case code >= 95:
		return "雷雨"
	default:
		return "不明"
	}
}
