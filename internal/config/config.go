package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `mapstructure:"pretty"`
}

type MascotConfig struct {
	ScreenWidth    int           `mapstructure:"screen_width" validate:"gte=1"`
	ScreenHeight   int           `mapstructure:"screen_height" validate:"gte=1"`
	SpriteWidth    int           `mapstructure:"sprite_width" validate:"gte=0"`
	SpriteHeight   int           `mapstructure:"sprite_height" validate:"gte=0"`
	BlinkInterval  time.Duration `mapstructure:"blink_interval" validate:"gt=0"`
	WanderInterval time.Duration `mapstructure:"wander_interval" validate:"gt=0"`
}

type GenerationConfig struct {
	// Backend is "completion" (llama.cpp-style server) or "gemini".
	Backend        string `mapstructure:"backend" validate:"oneof=completion gemini"`
	CompletionURL  string `mapstructure:"completion_url" validate:"omitempty,url"`
	Rendering      string `mapstructure:"rendering" validate:"oneof=transcript flat"`
	MaxPromptRunes int    `mapstructure:"max_prompt_runes" validate:"gte=1"`
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	GeminiModel    string `mapstructure:"gemini_model"`

	// Timeout bounds one completion request in place of http_timeout.
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`

	// Translate wraps the backend with ja→en→ja translation.
	Translate    bool   `mapstructure:"translate"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

type TranslationConfig struct {
	BaseURL       string `mapstructure:"base_url" validate:"omitempty,url"`
	FallbackRunes int    `mapstructure:"fallback_runes" validate:"gte=1"`
}

type AppConfig struct {
	OpenWeatherAPIKey string `mapstructure:"weather_api_key"`
	WeatherAPIKey     string `mapstructure:"weatherapi_api_key"`

	// WeatherProviders is the failover order of weather backends.
	WeatherProviders []string `mapstructure:"weather_providers" validate:"min=1,dive,oneof=openweathermap weatherapi openmeteo"`
	// WeatherInterval is the cache freshness window, in seconds.
	WeatherInterval int    `mapstructure:"weather_interval" validate:"gte=1"`
	WeatherPrefetch bool   `mapstructure:"weather_prefetch"`
	DefaultLocation string `mapstructure:"default_location" validate:"required"`

	HistoryFile       string `mapstructure:"history_file" validate:"required"`
	MaxHistoryEntries int    `mapstructure:"max_history_entries" validate:"gte=1"`
	ContextTurns      int    `mapstructure:"context_turns" validate:"gte=0"`

	MaxInFlight int           `mapstructure:"max_in_flight" validate:"gte=1"`
	TurnTimeout time.Duration `mapstructure:"turn_timeout" validate:"gte=0"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`

	Port int `mapstructure:"port" validate:"gte=1,lte=65535"`

	Log         LogConfig         `mapstructure:"log"`
	Mascot      MascotConfig      `mapstructure:"mascot"`
	Generation  GenerationConfig  `mapstructure:"generation"`
	Translation TranslationConfig `mapstructure:"translation"`
}

// WeatherCacheInterval returns WeatherInterval as a duration.
func (c *AppConfig) WeatherCacheInterval() time.Duration {
	return time.Duration(c.WeatherInterval) * time.Second
}

// Addr is the listen address for the HTTP API.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// EnvPrefix prefixes every environment override, e.g. MASCOT_PORT or
// MASCOT_GENERATION_BACKEND.
const EnvPrefix = "MASCOT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("weather_api_key", "")
	v.SetDefault("weatherapi_api_key", "")
	v.SetDefault("weather_providers", []string{"openweathermap", "weatherapi", "openmeteo"})
	v.SetDefault("weather_interval", 600)
	v.SetDefault("weather_prefetch", false)
	v.SetDefault("default_location", "Tokyo")

	v.SetDefault("history_file", "conversation_history.json")
	v.SetDefault("max_history_entries", 100)
	v.SetDefault("context_turns", 2)

	v.SetDefault("max_in_flight", 4)
	v.SetDefault("turn_timeout", "60s")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("port", 8765)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("mascot.screen_width", 1920)
	v.SetDefault("mascot.screen_height", 1080)
	v.SetDefault("mascot.sprite_width", 200)
	v.SetDefault("mascot.sprite_height", 200)
	v.SetDefault("mascot.blink_interval", "15s")
	v.SetDefault("mascot.wander_interval", "30s")

	v.SetDefault("generation.backend", "completion")
	v.SetDefault("generation.completion_url", "http://127.0.0.1:8080")
	v.SetDefault("generation.rendering", "transcript")
	v.SetDefault("generation.max_prompt_runes", 512)
	v.SetDefault("generation.timeout", "120s")
	v.SetDefault("generation.max_retries", 0)
	v.SetDefault("generation.gemini_api_key", "")
	v.SetDefault("generation.gemini_model", "gemini-2.5-flash")
	v.SetDefault("generation.translate", false)
	v.SetDefault("generation.system_prompt", "")

	v.SetDefault("translation.base_url", "")
	v.SetDefault("translation.fallback_runes", 500)
}

// Load reads configuration from an optional .env file, an optional config
// file and the environment. An empty path looks for config.json in the
// working directory. Missing API keys are not an error here.
func Load(path string, log zerolog.Logger) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file loaded")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional names used by the providers' own docs.
	_ = v.BindEnv("weather_api_key", EnvPrefix+"_WEATHER_API_KEY", "OPENWEATHER_API_KEY")
	_ = v.BindEnv("weatherapi_api_key", EnvPrefix+"_WEATHERAPI_API_KEY", "WEATHERAPI_API_KEY")
	_ = v.BindEnv("generation.gemini_api_key", EnvPrefix+"_GENERATION_GEMINI_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Info().Msg("no config file found, using defaults and environment")
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks cfg against its struct tags.
func Validate(cfg *AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
