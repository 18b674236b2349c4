package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/morich/attract-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("attract-service", &buf).
		WithComponent("script-service").
		WithSessionID("s-1").
		WithRequestID("r-1")

	log.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "attract-service", line["service"])
	assert.Equal(t, "script-service", line["component"])
	assert.Equal(t, "s-1", line["session_id"])
	assert.Equal(t, "r-1", line["request_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Nop().WithComponent("x").Error().Msg("dropped")
	})
}
