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

// OpenWeatherBaseURL is the current-weather endpoint of OpenWeatherMap.
const OpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	lang    string
	client  *httpclient.Client
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = OpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		lang:    "ja",
		client:  httpclient.New("openweather", client, httpclient.DefaultBackoff),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, query string) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("%w: openweather api key is not configured", chat.ErrConfigMissing)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lang", p.lang)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: %w", chat.ErrWeatherFetch, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64  `json:"dt"`
		Name string `json:"name"`
		Main *struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: decoding openweather response: %w", chat.ErrWeatherFetch, err)
	}
	if payload.Main == nil || len(payload.Weather) == 0 {
		return weather.Reading{}, fmt.Errorf("%w: openweather response is missing main or weather", chat.ErrWeatherFetch)
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	name := payload.Name
	if name == "" {
		name = query
	}

	return weather.Reading{
		ProviderName: p.name,
		Name:         name,
		Description:  payload.Weather[0].Description,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		Timestamp:    ts,
	}, nil
}
