package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
	dir string
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
	for _, key := range []string{
		"OPENWEATHER_API_KEY", "WEATHERAPI_API_KEY", "GEMINI_API_KEY",
		"MASCOT_PORT", "MASCOT_DEFAULT_LOCATION", "MASCOT_GENERATION_BACKEND",
		"MASCOT_WEATHER_PROVIDERS", "MASCOT_TURN_TIMEOUT",
	} {
		s.T().Setenv(key, "")
		os.Unsetenv(key)
	}
}

func (s *ConfigSuite) writeConfig(body string) string {
	path := filepath.Join(s.dir, "config.json")
	s.Require().NoError(os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load(filepath.Join(s.dir, "missing.json"), zerolog.Nop())
	s.Require().Error(err, "an explicit path must exist")
	s.Nil(cfg)

	cfg, err = Load(s.writeConfig(`{}`), zerolog.Nop())
	s.Require().NoError(err)

	s.Equal(600, cfg.WeatherInterval)
	s.Equal(10*time.Minute, cfg.WeatherCacheInterval())
	s.Equal("Tokyo", cfg.DefaultLocation)
	s.Equal(100, cfg.MaxHistoryEntries)
	s.Equal(2, cfg.ContextTurns)
	s.Equal(4, cfg.MaxInFlight)
	s.Equal(60*time.Second, cfg.TurnTimeout)
	s.Equal(10*time.Second, cfg.HTTPTimeout)
	s.Equal(":8765", cfg.Addr())
	s.Equal([]string{"openweathermap", "weatherapi", "openmeteo"}, cfg.WeatherProviders)
	s.Equal("completion", cfg.Generation.Backend)
	s.Equal("transcript", cfg.Generation.Rendering)
	s.Equal(512, cfg.Generation.MaxPromptRunes)
	s.Equal(2*time.Minute, cfg.Generation.Timeout)
	s.Zero(cfg.Generation.MaxRetries)
	s.Equal(500, cfg.Translation.FallbackRunes)
	s.Equal(15*time.Second, cfg.Mascot.BlinkInterval)
	s.Equal(30*time.Second, cfg.Mascot.WanderInterval)
	s.Empty(cfg.OpenWeatherAPIKey, "a missing key is not a load error")
}

func (s *ConfigSuite) TestFileValues() {
	cfg, err := Load(s.writeConfig(`{
		"weather_api_key": "file-key",
		"default_location": "Osaka",
		"weather_interval": 120,
		"max_history_entries": 10,
		"generation": {"backend": "gemini", "rendering": "flat"},
		"log": {"level": "debug", "pretty": true}
	}`), zerolog.Nop())
	s.Require().NoError(err)

	s.Equal("file-key", cfg.OpenWeatherAPIKey)
	s.Equal("Osaka", cfg.DefaultLocation)
	s.Equal(2*time.Minute, cfg.WeatherCacheInterval())
	s.Equal(10, cfg.MaxHistoryEntries)
	s.Equal("gemini", cfg.Generation.Backend)
	s.Equal("flat", cfg.Generation.Rendering)
	s.Equal("debug", cfg.Log.Level)
	s.True(cfg.Log.Pretty)
}

func (s *ConfigSuite) TestEnvironmentOverrides() {
	s.T().Setenv("OPENWEATHER_API_KEY", "env-key")
	s.T().Setenv("GEMINI_API_KEY", "gem")
	s.T().Setenv("MASCOT_PORT", "9000")
	s.T().Setenv("MASCOT_DEFAULT_LOCATION", "Sapporo")
	s.T().Setenv("MASCOT_TURN_TIMEOUT", "5s")

	cfg, err := Load(s.writeConfig(`{"default_location": "Osaka"}`), zerolog.Nop())
	s.Require().NoError(err)

	s.Equal("env-key", cfg.OpenWeatherAPIKey)
	s.Equal("gem", cfg.Generation.GeminiAPIKey)
	s.Equal(9000, cfg.Port)
	s.Equal("Sapporo", cfg.DefaultLocation)
	s.Equal(5*time.Second, cfg.TurnTimeout)
}

func (s *ConfigSuite) TestValidation() {
	cases := map[string]string{
		"bad backend":      `{"generation": {"backend": "gpt"}}`,
		"bad rendering":    `{"generation": {"rendering": "xml"}}`,
		"bad provider":     `{"weather_providers": ["wttr"]}`,
		"zero history":     `{"max_history_entries": 0}`,
		"bad port":         `{"port": 70000}`,
		"bad level":        `{"log": {"level": "loud"}}`,
		"zero gen timeout": `{"generation": {"timeout": "0s"}}`,
		"no location":      `{"default_location": ""}`,
	}
	for name, body := range cases {
		s.Run(name, func() {
			_, err := Load(s.writeConfig(body), zerolog.Nop())
			s.Error(err)
		})
	}
}

func (s *ConfigSuite) TestMalformedFile() {
	_, err := Load(s.writeConfig(`{not json`), zerolog.Nop())
	s.Error(err)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}
