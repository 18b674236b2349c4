package messaging_test

import (
	"testing"

	"github.com/morich/attract-backend/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_RoundTripsData(t *testing.T) {
	data := messaging.ScriptGeneratedEvent{
		SessionID:     "s-1",
		Generation:    3,
		Provider:      "gemini",
		SectionTitles: []string{"【響くキーワード】"},
		ResponseBytes: 120,
	}

	event, err := messaging.NewEvent(messaging.EventScriptGenerated, "attract-service", "req-1", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, messaging.EventScriptGenerated, event.Type)
	assert.Equal(t, "req-1", event.CorrelationID)
	assert.False(t, event.Timestamp.IsZero())

	var got messaging.ScriptGeneratedEvent
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a, err := messaging.NewEvent(messaging.EventScriptFailed, "x", "", messaging.ScriptFailedEvent{})
	require.NoError(t, err)
	b, err := messaging.NewEvent(messaging.EventScriptFailed, "x", "", messaging.ScriptFailedEvent{})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}
