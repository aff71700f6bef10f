package chat

import (
	"encoding/json"
	"strconv"
	"time"
)

// TimeLayout is the minute-resolution timestamp format used in the history file.
const TimeLayout = "2006-01-02 15:04"

// Turn is one persisted input/response exchange.
type Turn struct {
	Timestamp time.Time
	Input     string
	Response  string
}

type turnRecord struct {
	Time     string `json:"time"`
	Input    string `json:"input"`
	Response string `json:"response"`
}

// legacyTurnRecord is the layout written by earlier builds of the mascot.
type legacyTurnRecord struct {
	Timestamp      json.Number `json:"timestamp"`
	UserInput      string      `json:"user_input"`
	MascotResponse string      `json:"mascot_response"`
}

// MarshalJSON encodes the turn as {"time", "input", "response"}.
func (t Turn) MarshalJSON() ([]byte, error) {
	rec := turnRecord{
		Input:    t.Input,
		Response: t.Response,
	}
	if !t.Timestamp.IsZero() {
		rec.Time = t.Timestamp.Local().Format(TimeLayout)
	}
	return json.Marshal(rec)
}

// UnmarshalJSON accepts the current layout and the legacy
// {"timestamp", "user_input", "mascot_response"} layout. An unparsable time
// leaves Timestamp zero rather than failing the whole log.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var rec turnRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.Input != "" || rec.Response != "" || rec.Time != "" {
		*t = Turn{Input: rec.Input, Response: rec.Response}
		if ts, err := time.ParseInLocation(TimeLayout, rec.Time, time.Local); err == nil {
			t.Timestamp = ts
		}
		return nil
	}

	var legacy legacyTurnRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	*t = Turn{Input: legacy.UserInput, Response: legacy.MascotResponse}
	if secs, err := strconv.ParseFloat(legacy.Timestamp.String(), 64); err == nil && secs > 0 {
		t.Timestamp = time.Unix(int64(secs), 0).Truncate(time.Minute)
	}
	return nil
}

// EventKind distinguishes display events.
type EventKind string

const (
	EventNewMessage EventKind = "new_message"
	EventError      EventKind = "error"
	// EventExit asks the presentation layer to tear down.
	EventExit EventKind = "exit"
)

// DisplayEvent is a transient notification for the presentation layer.
type DisplayEvent struct {
	Kind      EventKind `json:"kind"`
	Payload   string    `json:"payload"`
	MessageID string    `json:"messageId,omitempty"`
	Seq       uint64    `json:"seq"` // submission order, not delivery order
	At        time.Time `json:"at"`
}

// IntentKind is the routing decision for an utterance.
type IntentKind string

const (
	IntentChat    IntentKind = "chat"
	IntentWeather IntentKind = "weather"
	IntentExit    IntentKind = "exit"
)

// Intent is the classification of one utterance. Location is only set for
// weather intents whose text named a place.
type Intent struct {
	Kind     IntentKind `json:"kind"`
	Location string     `json:"location,omitempty"`
}

// Submission identifies an accepted message.
type Submission struct {
	ID     string `json:"id"`
	Seq    uint64 `json:"seq"`
	Intent Intent `json:"intent"`
}
