package weather

import (
	"fmt"
	"strconv"
	"time"
)

// Reading is one provider's view of the current weather at a place.
type Reading struct {
	ProviderName string
	// Name is the place name as resolved by the provider.
	Name         string
	Description  string
	TemperatureC float64
	HumidityPct  float64
	Timestamp    time.Time
}

// Summary renders the reading for the chat window.
func (r Reading) Summary() string {
	return fmt.Sprintf("%sの天気: %s\n気温: %s℃ / 湿度: %s%%",
		r.Name, r.Description, formatNumber(r.TemperatureC), formatNumber(r.HumidityPct))
}

// Entry is a cached summary for one location key.
type Entry struct {
	Location  string    `json:"location"`
	Summary   string    `json:"summary"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// FailurePrefix starts every rendered lookup failure.
const FailurePrefix = "天気情報の取得に失敗: "

// FailureMessage renders err for the chat window.
func FailureMessage(err error) string {
	return FailurePrefix + err.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
