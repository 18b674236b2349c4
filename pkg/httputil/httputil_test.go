package httputil_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/morich/attract-backend/pkg/errors"
	"github.com/morich/attract-backend/pkg/httputil"
	"github.com/morich/attract-backend/pkg/i18n"
	"github.com/morich/attract-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Candidate string `json:"jobSeekerInfo" validate:"notblank"`
	Offer     string `json:"jobOfferInfo" validate:"notblank"`
}

func TestValidate_NotBlank(t *testing.T) {
	err := httputil.Validate(payload{Candidate: "  \n\t", Offer: "offer"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Contains(t, appErr.Details, "jobSeekerInfo")
	assert.NotContains(t, appErr.Details, "jobOfferInfo")

	assert.NoError(t, httputil.Validate(payload{Candidate: "a", Offer: "b"}))
}

func TestErrorLocalized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(i18n.WithLocale(req.Context(), i18n.LocaleEnglish))
	rr := httptest.NewRecorder()

	httputil.ErrorLocalized(rr, req, errors.MethodNotAllowed())

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "METHOD_NOT_ALLOWED", resp.Error.Code)
	assert.Equal(t, "Method not allowed.", resp.Error.Message)
}

func TestErrorLocalized_PlainErrorIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	httputil.ErrorLocalized(rr, req, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
}

func TestDecodeJSON_Invalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var p payload

	err := httputil.DecodeJSON(req, &p)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "errors.invalid_json", appErr.MessageKey)
}

func TestTextStream(t *testing.T) {
	rr := httptest.NewRecorder()
	stream := httputil.NewTextStream(rr)
	assert.False(t, stream.Started())

	require.NoError(t, stream.WriteChunk("### A\n"))
	require.NoError(t, stream.WriteChunk("hello"))

	assert.True(t, stream.Started())
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "### A\nhello", rr.Body.String())
	assert.True(t, rr.Flushed)
}

func TestMiddleware_RequestIDAndRecoverer(t *testing.T) {
	log := logger.Nop()
	var seen string
	h := httputil.RequestID(httputil.Logger(log)(httputil.Recoverer(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r.Context())
		panic("boom")
	}))))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
}

func TestRecoverer_PassesAbort(t *testing.T) {
	h := httputil.Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.NewTextStream(w).Abort()
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLogger_RecordsAbortedStream(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("attract-service", &buf)
	h := httputil.Logger(log)(httputil.Recoverer(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stream := httputil.NewTextStream(w)
		require.NoError(t, stream.WriteChunk("### 【響くキーワード】\n"))
		stream.Abort()
	})))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, true, line["aborted"])
	assert.Equal(t, "/api/generate", line["path"])
	assert.Equal(t, float64(len("### 【響くキーワード】\n")), line["bytes"])
}
