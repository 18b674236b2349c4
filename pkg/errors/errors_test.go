package errors_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/morich/attract-backend/pkg/errors"
	"github.com/morich/attract-backend/pkg/i18n"
	"github.com/stretchr/testify/assert"
)

func TestNotFound_LocalizesResource(t *testing.T) {
	err := errors.NotFound("session")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "セッションが見つかりません。", err.Localize(context.Background()))
	assert.Equal(t, "Session not found.", err.Localize(i18n.WithLocale(context.Background(), i18n.LocaleEnglish)))
	assert.Equal(t, "session", err.Params["resource"])

	unknown := errors.NotFound("widget")
	assert.Equal(t, "widgetが見つかりません。", unknown.Localize(context.Background()))
}

func TestWithCause_KeepsSentinel(t *testing.T) {
	cause := stderrors.New("upstream reset")
	err := errors.BadGateway("upstream failed").WithCause(cause)

	assert.True(t, errors.Is(err, errors.ErrBadGateway))
	assert.True(t, errors.Is(err, cause))
}

func TestWithKey(t *testing.T) {
	err := errors.Internal("no key").WithKey("generation.api_key_missing")

	assert.Equal(t, "generation.api_key_missing", err.MessageKey)
	assert.Equal(t, "APIキーが設定されていません。", err.Message)
	assert.Equal(t, "The API key is not configured.", err.Localize(i18n.WithLocale(context.Background(), i18n.LocaleEnglish)))
}
