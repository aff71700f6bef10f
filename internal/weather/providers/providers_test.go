package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/weather"
)

var (
	_ weather.Provider = (*OpenWeatherProvider)(nil)
	_ weather.Provider = (*WeatherAPIProvider)(nil)
	_ weather.Provider = (*OpenMeteoProvider)(nil)
)

func TestOpenWeatherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Tokyo", q.Get("q"))
		assert.Equal(t, "secret", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "ja", q.Get("lang"))
		w.Write([]byte(`{"dt":1717243200,"name":"東京都","main":{"temp":21.5,"humidity":40},"weather":[{"description":"晴れ"}]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret", srv.URL)
	r, err := p.Fetch(context.Background(), "Tokyo")
	require.NoError(t, err)

	assert.Equal(t, "openweathermap", r.ProviderName)
	assert.Equal(t, "東京都の天気: 晴れ\n気温: 21.5℃ / 湿度: 40%", r.Summary())
	assert.Equal(t, int64(1717243200), r.Timestamp.Unix())
}

func TestOpenWeatherMissingKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", "http://127.0.0.1:0")
	_, err := p.Fetch(context.Background(), "Tokyo")
	assert.ErrorIs(t, err, chat.ErrConfigMissing)
}

func TestOpenWeatherNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret", srv.URL)
	_, err := p.Fetch(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, chat.ErrWeatherFetch)
}

func TestOpenWeatherMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"Tokyo","weather":[]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret", srv.URL)
	_, err := p.Fetch(context.Background(), "Tokyo")
	assert.ErrorIs(t, err, chat.ErrWeatherFetch)
}

func TestWeatherAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "London", q.Get("q"))
		assert.Equal(t, "k", q.Get("key"))
		w.Write([]byte(`{"location":{"name":"London","localtime_epoch":1717243200},"current":{"temp_c":12,"humidity":80,"condition":{"text":"曇り"}}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "k", srv.URL)
	r, err := p.Fetch(context.Background(), "London")
	require.NoError(t, err)

	assert.Equal(t, "weatherapi", r.ProviderName)
	assert.Equal(t, "Londonの天気: 曇り\n気温: 12℃ / 湿度: 80%", r.Summary())
}

func TestWeatherAPIMissingKey(t *testing.T) {
	p := NewWeatherAPIProvider(http.DefaultClient, "", "")
	_, err := p.Fetch(context.Background(), "London")
	assert.ErrorIs(t, err, chat.ErrConfigMissing)
}

func TestOpenMeteoFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/geo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Tokyo", r.URL.Query().Get("name"))
		w.Write([]byte(`{"results":[{"name":"東京","latitude":35.6895,"longitude":139.6917}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "35.689500", r.URL.Query().Get("latitude"))
		w.Write([]byte(`{"current":{"time":"2025-06-01T12:00","temperature_2m":24.3,"relative_humidity_2m":55,"weather_code":3}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL+"/forecast", srv.URL+"/geo")
	r, err := p.Fetch(context.Background(), "Tokyo")
	require.NoError(t, err)

	assert.Equal(t, "openmeteo", r.ProviderName)
	assert.Equal(t, "東京の天気: 曇り\n気温: 24.3℃ / 湿度: 55%", r.Summary())
	assert.Equal(t, 12, r.Timestamp.Hour())
}

func TestOpenMeteoUnknownPlace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"generationtime_ms":0.5}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, srv.URL)
	_, err := p.Fetch(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, chat.ErrWeatherFetch)
	assert.Contains(t, err.Error(), "Nowhere")
}

func TestDescribeOpenMeteoCode(t *testing.T) {
	cases := map[int]string{
		0:  "快晴",
		2:  "晴れ",
		3:  "曇り",
		45: "霧",
		53: "霧雨",
		63: "雨",
		81: "雨",
		73: "雪",
		95: "雷雨",
		42: "不明",
	}
	for code, want := range cases {
		assert.Equal(t, want, describeOpenMeteoCode(code), "code %d", code)
	}
}
