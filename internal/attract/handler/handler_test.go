package handler_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/morich/attract-backend/internal/attract/domain"
	"github.com/morich/attract-backend/internal/attract/extraction"
	"github.com/morich/attract-backend/internal/attract/generation"
	"github.com/morich/attract-backend/internal/attract/generation/generationtest"
	"github.com/morich/attract-backend/internal/attract/handler"
	"github.com/morich/attract-backend/internal/attract/service"
	"github.com/morich/attract-backend/internal/attract/storage"
	"github.com/morich/attract-backend/pkg/httputil"
	"github.com/morich/attract-backend/pkg/i18n"
	"github.com/morich/attract-backend/pkg/logger"
	"github.com/morich/attract-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = "### 【響くキーワード】\nGo, リモート\n### 【最強のマッチングポイント】\n経験が一致\n"

var validBody = map[string]string{"jobSeekerInfo": "Go歴5年", "jobOfferInfo": "バックエンド募集"}

type options struct {
	maxPDFBytes int64
	client      *http.Client
}

func newRouter(t *testing.T, gen generation.Generator, opts ...options) http.Handler {
	t.Helper()

	var o options
	if len(opts) > 0 {
		o = opts[0]
	}

	store := storage.NewSessionStore(time.Hour)
	t.Cleanup(store.Close)

	log := logger.Nop()
	svc := service.NewService(
		gen,
		extraction.NewPDF(o.maxPDFBytes),
		extraction.NewURL(o.client, 0),
		store,
		nil,
		log,
		service.Options{RequestTimeout: 5 * time.Second, FallbackSection: true},
	)

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.Recoverer(log))
	r.Use(i18n.Middleware)
	handler.Mount(r,
		handler.NewScriptHandler(svc, log),
		handler.NewSessionHandler(svc, log),
		handler.NewDocumentHandler(svc, log),
	)
	return r
}

func TestStream_Success(t *testing.T) {
	fake := &generationtest.Fake{Chunks: []string{"### 【響くキーワード】\n", "Go, ", "リモート\n"}}
	r := newRouter(t, fake)

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/generate", validBody))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "### 【響くキーワード】\nGo, リモート\n", rr.Body.String())
	assert.Contains(t, fake.LastPrompt(), "Go歴5年")
}

func TestStream_JSONErrors(t *testing.T) {
	tests := []struct {
		name       string
		gen        generation.Generator
		body       interface{}
		lang       string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "blank offer",
			gen:        &generationtest.Fake{},
			body:       map[string]string{"jobSeekerInfo": "Go歴5年", "jobOfferInfo": "   "},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
			wantMsg:    "求職者情報または求人情報が不足しています。",
		},
		{
			name:       "missing fields in english",
			gen:        &generationtest.Fake{},
			body:       map[string]string{},
			lang:       "en-US,en;q=0.9",
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
			wantMsg:    "Candidate information or job offer information is missing.",
		},
		{
			name:       "malformed json",
			gen:        &generationtest.Fake{},
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
			wantMsg:    "JSONの形式が正しくありません。",
		},
		{
			name:       "no api key",
			gen:        nil,
			body:       validBody,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "APIキーが設定されていません。",
		},
		{
			name:       "upstream rejects before any text",
			gen:        &generationtest.Fake{Err: &generation.Error{Kind: generation.KindEndpoint, Message: "prompt blocked: SAFETY"}},
			body:       validBody,
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
			wantMsg:    "APIエラーが発生しました: prompt blocked: SAFETY",
		},
		{
			name:       "empty response",
			gen:        &generationtest.Fake{},
			body:       validBody,
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
			wantMsg:    "APIからの応答が空です。",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, tt.gen)
			req := testutil.NewHTTPRequest(http.MethodPost, "/api/generate", tt.body)
			if tt.lang != "" {
				testutil.WithAcceptLanguage(req, tt.lang)
			}

			rr := testutil.ExecuteRequest(r, req)

			testutil.AssertStatus(t, rr, tt.wantStatus)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			env := testutil.ParseEnvelope[any](t, rr)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantMsg, env.Error.Message)
		})
	}
}

func TestStream_MethodNotAllowed(t *testing.T) {
	r := newRouter(t, &generationtest.Fake{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(method, "/api/generate", nil))

		testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
		env := testutil.ParseEnvelope[any](t, rr)
		require.NotNil(t, env.Error)
		assert.Equal(t, "METHOD_NOT_ALLOWED", env.Error.Code)
	}
}

func TestStream_AbortsAfterFirstChunk(t *testing.T) {
	fake := &generationtest.Fake{
		Chunks: []string{"### 【響くキーワード】\n"},
		Err:    &generation.Error{Kind: generation.KindTransport, Message: "connection reset"},
	}
	srv := httptest.NewServer(newRouter(t, fake))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(testutil.MustJSON(validBody)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.Error(t, err, "the client must observe an incomplete body")
	assert.Equal(t, "### 【響くキーワード】\n", string(body))
}

func TestScripts_Buffered(t *testing.T) {
	r := newRouter(t, &generationtest.Fake{Chunks: []string{"前置き\n", script}})

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/scripts", validBody))

	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.ParseEnvelope[domain.Script](t, rr)
	assert.True(t, env.Success)
	require.Len(t, env.Data.Sections, 2)
	assert.Equal(t, domain.SectionKeywords, env.Data.Sections[0].Title)
	assert.Equal(t, "Go, リモート", env.Data.Sections[0].Content)
}

func TestScripts_FormatError(t *testing.T) {
	r := newRouter(t, &generationtest.Fake{Chunks: []string{"見出しのない応答"}})

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/scripts", validBody))

	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	env := testutil.ParseEnvelope[domain.Script](t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "生成されたスクリプトの形式が正しくありません。AIの応答を確認してください。", env.Error.Message)
	assert.Equal(t, "見出しのない応答", env.Data.Raw)
	require.Len(t, env.Data.Sections, 1)
	assert.Equal(t, "解析不能なスクリプト", env.Data.Sections[0].Title)
}

func TestSessions_Flow(t *testing.T) {
	r := newRouter(t, &generationtest.Fake{Chunks: []string{script}})

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/sessions", nil))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.ParseEnvelope[domain.Snapshot](t, rr).Data
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, domain.StatusIdle, created.Status)

	path := "/api/v1/sessions/" + created.SessionID

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, path+"/generate", validBody))
	testutil.AssertStatus(t, rr, http.StatusAccepted)
	assert.Equal(t, uint64(1), testutil.ParseEnvelope[domain.Snapshot](t, rr).Data.Generation)

	var snap domain.Snapshot
	testutil.RequireEventually(t, func() bool {
		rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet, path, nil))
		snap = testutil.ParseEnvelope[domain.Snapshot](t, rr).Data
		return snap.Status == domain.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond, "session did not complete")

	assert.Len(t, snap.Sections, 2)
	assert.Equal(t, []string{"Go", "リモート"}, snap.Keywords)
	assert.Equal(t, "Go歴5年", snap.CandidateText)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodDelete, path, nil))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet, path, nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestSessions_BlankInput(t *testing.T) {
	fake := &generationtest.Fake{Chunks: []string{script}}
	r := newRouter(t, fake)

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/sessions", nil))
	id := testutil.ParseEnvelope[domain.Snapshot](t, rr).Data.SessionID

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/sessions/"+id+"/generate", map[string]string{"jobSeekerInfo": "", "jobOfferInfo": "求人"})
	rr = testutil.ExecuteRequest(r, testutil.WithAcceptLanguage(req, "en"))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	env := testutil.ParseEnvelope[domain.Snapshot](t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Please enter both the candidate information and the job offer.", env.Error.Message)
	assert.Equal(t, domain.StatusFailed, env.Data.Status)
	require.NotNil(t, env.Data.Error)
	assert.Equal(t, domain.FailureValidation, env.Data.Error.Kind)
	assert.Equal(t, "Please enter both the candidate information and the job offer.", env.Data.Error.Message)
	assert.Equal(t, 0, fake.Calls())
}

func TestSessions_Unknown(t *testing.T) {
	r := newRouter(t, &generationtest.Fake{})

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/sessions/nope/generate", validBody))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/sessions/nope", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocuments_Extract(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		maxBytes   int64
		wantStatus int
		wantMsg    string
	}{
		{
			name: "word document",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "resume.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("PK\x03\x04"))
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantMsg:    "PDFファイルのみアップロードできます。",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "resume.pdf", "application/pdf", append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 200)...))
			},
			maxBytes:   100,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "corrupt pdf",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "resume.pdf", "application/pdf", []byte("%PDF-1.4\nbroken"))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "PDFの解析中にエラーが発生しました。",
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "", "", nil)
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "ファイルが選択されていません。",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return testutil.NewHTTPRequest(http.MethodPost, "/api/v1/documents/extract", validBody)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, &generationtest.Fake{}, options{maxPDFBytes: tt.maxBytes})

			rr := testutil.ExecuteRequest(r, tt.req(t))

			testutil.AssertStatus(t, rr, tt.wantStatus)
			if tt.wantMsg != "" {
				env := testutil.ParseEnvelope[any](t, rr)
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantMsg, env.Error.Message)
			}
		})
	}
}

func TestDocuments_Fetch(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>求人票</h1><script>track()</script><p>フルリモート</p></body></html>`)
	}))
	defer page.Close()

	r := newRouter(t, &generationtest.Fake{}, options{client: page.Client()})

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/documents/fetch", map[string]string{"url": page.URL + "/job"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	doc := testutil.ParseEnvelope[domain.ExtractedDocument](t, rr).Data
	assert.Equal(t, "求人票\nフルリモート", doc.Text)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/documents/fetch", map[string]string{"url": page.URL + "/gone"}))
	testutil.AssertStatus(t, rr, http.StatusBadGateway)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/documents/fetch", map[string]string{"url": "ftp://example.com"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "有効なURLを入力してください。")

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/documents/fetch", map[string]string{"url": " "}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestUnknownRoute(t *testing.T) {
	r := newRouter(t, &generationtest.Fake{})

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet, "/api/v2/unknown", nil))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	env := testutil.ParseEnvelope[any](t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
