package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventScriptGenerated = "attract.script.generated"
	EventScriptFailed    = "attract.script.failed"
)

// Exchange names
const (
	ExchangeAttractEvents = "attract.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ScriptGeneratedEvent is published when a session finishes with parsed sections.
// It never carries candidate or offer text.
type ScriptGeneratedEvent struct {
	SessionID     string   `json:"session_id"`
	Generation    uint64   `json:"generation"`
	Provider      string   `json:"provider"`
	SectionTitles []string `json:"section_titles"`
	ResponseBytes int      `json:"response_bytes"`
	DurationMs    int64    `json:"duration_ms"`
}

// ScriptFailedEvent is published when a session generation ends in failure
type ScriptFailedEvent struct {
	SessionID  string `json:"session_id"`
	Generation uint64 `json:"generation"`
	Provider   string `json:"provider"`
	Kind       string `json:"kind"`
	Reason     string `json:"reason"`
	DurationMs int64  `json:"duration_ms"`
}
