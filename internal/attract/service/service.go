package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/morich/attract-backend/internal/attract/domain"
	"github.com/morich/attract-backend/internal/attract/extraction"
	"github.com/morich/attract-backend/internal/attract/generation"
	"github.com/morich/attract-backend/internal/attract/parser"
	"github.com/morich/attract-backend/internal/attract/prompt"
	"github.com/morich/attract-backend/internal/attract/session"
	"github.com/morich/attract-backend/internal/attract/storage"
	"github.com/morich/attract-backend/pkg/errors"
	"github.com/morich/attract-backend/pkg/httputil"
	"github.com/morich/attract-backend/pkg/logger"
	"github.com/morich/attract-backend/pkg/messaging"
)

const publishTimeout = 5 * time.Second

// EventPublisher receives the outcome of every session generation
type EventPublisher interface {
	PublishScriptGenerated(ctx context.Context, data messaging.ScriptGeneratedEvent)
	PublishScriptFailed(ctx context.Context, data messaging.ScriptFailedEvent)
}

// Options tunes the service
type Options struct {
	// RequestTimeout bounds one generation call. Zero means no limit.
	RequestTimeout time.Duration
	// FallbackSection exposes unparsable output as one section
	FallbackSection bool
}

// Service orchestrates script generation: validate → build prompt → stream → parse
type Service struct {
	generator generation.Generator
	pdf       *extraction.PDF
	pages     *extraction.URL
	store     *storage.SessionStore
	publisher EventPublisher
	log       *logger.Logger
	opts      Options

	running sync.WaitGroup
}

// NewService creates a new script service. A nil generator means no API key
// is configured; every generation then fails with the api key message.
// A nil publisher disables events.
func NewService(
	gen generation.Generator,
	pdf *extraction.PDF,
	pages *extraction.URL,
	store *storage.SessionStore,
	publisher EventPublisher,
	log *logger.Logger,
	opts Options,
) *Service {
	return &Service{
		generator: gen,
		pdf:       pdf,
		pages:     pages,
		store:     store,
		publisher: publisher,
		log:       log.WithComponent("script-service"),
		opts:      opts,
	}
}

// Provider returns the name of the configured generator, or "" without one
func (s *Service) Provider() string {
	if s.generator == nil {
		return ""
	}
	return s.generator.Name()
}

// Validate checks that both texts are non-empty after trimming
func (s *Service) Validate(req domain.GenerationRequest) error {
	if err := httputil.Validate(req); err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return appErr.WithKey("generation.missing_inputs")
		}
		return err
	}
	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

// Stream generates a script and passes every chunk to onChunk in arrival
// order. An error from onChunk stops the generation and is returned as is.
func (s *Service) Stream(ctx context.Context, req domain.GenerationRequest, onChunk func(string) error) error {
	if s.generator == nil {
		return notConfiguredError()
	}
	if err := s.Validate(req); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var written int
	for chunk, err := range s.generator.Generate(ctx, prompt.Build(req.CandidateText, req.OfferText)) {
		if err != nil {
			s.log.Warn().Err(err).
				Str("provider", s.generator.Name()).
				Int("bytes", written).
				Msg("generation stream failed")
			return generationError(err)
		}
		if chunk == "" {
			continue
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
		written += len(chunk)
	}

	if written == 0 {
		return generationError(&generation.Error{Kind: generation.KindEmptyBody, Message: "response contained no text"})
	}

	s.log.Info().
		Str("provider", s.generator.Name()).
		Int("bytes", written).
		Dur("duration", time.Since(start)).
		Msg("generation stream completed")
	return nil
}

// Generate runs a buffered generation and parses the result. When the
// response has no sections the script still carries the raw text, and the
// fallback section if enabled, next to a format error.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Script, error) {
	if s.generator == nil {
		return nil, notConfiguredError()
	}
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := generation.Collect(ctx, s.generator, prompt.Build(req.CandidateText, req.OfferText))
	if err != nil {
		s.log.Warn().Err(err).Str("provider", s.generator.Name()).Msg("generation failed")
		return nil, generationError(err)
	}

	script := &domain.Script{Raw: raw, Sections: parser.Parse(raw)}
	if len(script.Sections) == 0 {
		if s.opts.FallbackSection {
			script.Sections = parser.Fallback(raw)
		}
		return script, formatError()
	}
	return script, nil
}

// CreateSession creates an idle session
func (s *Service) CreateSession() domain.Snapshot {
	sess := session.New(storage.NewSessionID(), session.WithFallbackSection(s.opts.FallbackSection))
	s.watch(sess)
	s.store.Store(sess)

	s.log.Debug().Str("session_id", sess.ID()).Msg("session created")
	return sess.Snapshot()
}

// GetSession returns the snapshot of a session
func (s *Service) GetSession(id string) (domain.Snapshot, error) {
	sess := s.store.Get(id)
	if sess == nil {
		return domain.Snapshot{}, errors.NotFound("session")
	}
	return sess.Snapshot(), nil
}

// DeleteSession removes a session and cancels its running generation
func (s *Service) DeleteSession(id string) error {
	if !s.store.Delete(id) {
		return errors.NotFound("session")
	}
	return nil
}

// StartGeneration starts a generation on a session and returns its
// generating snapshot immediately. A generation already running on the
// session is cancelled and its late output ignored. Blank input is recorded
// on the session as a validation failure and no request is made.
func (s *Service) StartGeneration(ctx context.Context, id string, req domain.GenerationRequest) (domain.Snapshot, error) {
	sess := s.store.Get(id)
	if sess == nil {
		return domain.Snapshot{}, errors.NotFound("session")
	}

	if err := s.Validate(req); err != nil {
		sess.Reject(req.CandidateText, req.OfferText)
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			err = appErr.WithKey(session.KeyInputsRequired)
		}
		return sess.Snapshot(), err
	}

	// Use a detached context so the request ending does not stop the generation
	genCtx, token := sess.Start(context.WithoutCancel(ctx), req.CandidateText, req.OfferText)

	if s.generator == nil {
		appErr := notConfiguredError()
		sess.Dispatch(session.CompleteError{
			Generation: token,
			Failure:    session.NewFailure(domain.FailureTransport, appErr.MessageKey, nil, ""),
		})
		sess.Finish(token)
		return sess.Snapshot(), appErr
	}

	s.running.Add(1)
	go s.runGeneration(genCtx, sess, token, prompt.Build(req.CandidateText, req.OfferText))

	return sess.Snapshot(), nil
}

// runGeneration feeds one stream into the session in a background goroutine
func (s *Service) runGeneration(ctx context.Context, sess *session.Session, token uint64, text string) {
	defer s.running.Done()
	defer sess.Finish(token)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	log := s.log.WithSessionID(sess.ID())
	log.Info().
		Uint64("generation", token).
		Str("provider", s.generator.Name()).
		Msg("session generation started")

	var received int
	for chunk, err := range s.generator.Generate(ctx, text) {
		if err != nil {
			sess.Dispatch(session.CompleteError{Generation: token, Failure: failureFor(err)})
			log.Warn().Err(err).
				Uint64("generation", token).
				Int("bytes", received).
				Msg("session generation failed")
			return
		}
		received += len(chunk)
		sess.Dispatch(session.ReceiveChunk{Generation: token, Text: chunk})
	}

	if received == 0 {
		err := &generation.Error{Kind: generation.KindEmptyBody, Message: "response contained no text"}
		sess.Dispatch(session.CompleteError{Generation: token, Failure: failureFor(err)})
		log.Warn().Uint64("generation", token).Msg("session generation returned no text")
		return
	}

	state := sess.Dispatch(session.CompleteSuccess{Generation: token})
	log.Info().
		Uint64("generation", token).
		Str("status", string(state.Status)).
		Int("sections", len(state.Sections)).
		Msg("session generation finished")
}

// watch publishes the outcome of each generation of sess
func (s *Service) watch(sess *session.Session) {
	if s.publisher == nil {
		return
	}

	var (
		current   uint64
		startedAt time.Time
	)
	sess.Subscribe(func(st session.State) {
		switch {
		case st.Status == domain.StatusGenerating && st.Generation != current:
			current = st.Generation
			startedAt = time.Now()
		case st.Terminal() && st.Generation == current && !startedAt.IsZero():
			s.publishOutcome(sess.ID(), st, time.Since(startedAt))
			startedAt = time.Time{}
		}
	})
}

func (s *Service) publishOutcome(sessionID string, st session.State, elapsed time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	ctx = messaging.WithCorrelationID(ctx, sessionID)

	if st.Status == domain.StatusCompleted {
		titles := make([]string, len(st.Sections))
		for i, section := range st.Sections {
			titles[i] = section.Title
		}
		s.publisher.PublishScriptGenerated(ctx, messaging.ScriptGeneratedEvent{
			SessionID:     sessionID,
			Generation:    st.Generation,
			Provider:      s.Provider(),
			SectionTitles: titles,
			ResponseBytes: len(st.Raw),
			DurationMs:    elapsed.Milliseconds(),
		})
		return
	}

	event := messaging.ScriptFailedEvent{
		SessionID:  sessionID,
		Generation: st.Generation,
		Provider:   s.Provider(),
		DurationMs: elapsed.Milliseconds(),
	}
	if st.Failure != nil {
		event.Kind = string(st.Failure.Kind)
		event.Reason = st.Failure.MessageKey
	}
	s.publisher.PublishScriptFailed(ctx, event)
}

// ExtractDocument returns the text of an uploaded PDF
func (s *Service) ExtractDocument(ctx context.Context, doc extraction.Document) (*domain.ExtractedDocument, error) {
	result, err := s.pdf.Extract(ctx, doc)
	if err != nil {
		s.log.Warn().Err(err).
			Str("filename", doc.Filename).
			Str("content_type", doc.ContentType).
			Int("bytes", len(doc.Data)).
			Msg("document extraction failed")
		return nil, pdfError(err, s.pdf.MaxBytes())
	}
	return result, nil
}

// MaxDocumentBytes returns the PDF upload limit
func (s *Service) MaxDocumentBytes() int64 {
	return s.pdf.MaxBytes()
}

// FetchDocument returns the visible text of a job posting page
func (s *Service) FetchDocument(ctx context.Context, rawURL string) (*domain.ExtractedDocument, error) {
	result, err := s.pages.Extract(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		s.log.Warn().Err(err).Str("url", rawURL).Msg("page extraction failed")
		return nil, urlError(err, s.pages.MaxBytes())
	}
	return result, nil
}

// Wait blocks until every background generation has finished or ctx ends
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
