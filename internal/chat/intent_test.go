package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	r := NewIntentRouter()

	tests := []struct {
		name string
		text string
		want Intent
	}{
		{"japanese place weather", "東京の天気", Intent{Kind: IntentWeather, Location: "東京"}},
		{"english weather in", "what is the weather in London", Intent{Kind: IntentWeather, Location: "London"}},
		{"weather without place", "今日の気温は？", Intent{Kind: IntentWeather}},
		{"bare keyword", "天気", Intent{Kind: IntentWeather}},
		{"exit english", "ok bye", Intent{Kind: IntentExit}},
		{"exit japanese", "またあとでね", Intent{Kind: IntentExit}},
		{"exit wins over weather", "天気ありがとう、さようなら", Intent{Kind: IntentExit}},
		{"exit is case sensitive", "BYE", Intent{Kind: IntentChat}},
		{"chat", "こんにちは", Intent{Kind: IntentChat}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Classify(tt.text))
		})
	}
}

func TestExtractLocation(t *testing.T) {
	assert.Equal(t, "大阪", ExtractLocation("大阪の天気を教えて"))
	assert.Equal(t, "New York", ExtractLocation("weather in New York"))
	assert.Equal(t, "", ExtractLocation("weather please"))
	assert.Equal(t, "", ExtractLocation("の天気"))
}
