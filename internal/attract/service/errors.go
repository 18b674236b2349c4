package service

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/morich/attract-backend/internal/attract/domain"
	"github.com/morich/attract-backend/internal/attract/extraction"
	"github.com/morich/attract-backend/internal/attract/generation"
	"github.com/morich/attract-backend/internal/attract/session"
	"github.com/morich/attract-backend/pkg/errors"
)

// ErrFormat is returned when a complete response contains no sections
var ErrFormat = stderrors.New("service: response has no sections")

func notConfiguredError() *errors.AppError {
	return errors.Internal("API key is not configured").
		WithKey("generation.api_key_missing").
		WithCause(generation.ErrNotConfigured)
}

func formatError() *errors.AppError {
	return errors.Unprocessable("response has no sections").
		WithKey(session.KeyFormatInvalid).
		WithCause(ErrFormat)
}

// generationError maps a failed generation to the error shown to the user
func generationError(err error) *errors.AppError {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if stderrors.Is(err, generation.ErrNotConfigured) {
		return notConfiguredError()
	}

	var genErr *generation.Error
	isGenErr := errors.As(err, &genErr)
	if isGenErr && genErr.Kind == generation.KindStalled {
		return errors.GatewayTimeout(genErr.Error()).WithKey("generation.stalled").WithCause(err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.GatewayTimeout("generation timed out").WithCause(err)
	}
	if !isGenErr {
		return errors.BadGateway(err.Error()).
			WithKey("generation.failed", map[string]string{"detail": err.Error()}).
			WithCause(err)
	}

	switch genErr.Kind {
	case generation.KindEmptyBody:
		return errors.BadGateway(genErr.Error()).WithKey("generation.empty_response").WithCause(err)
	case generation.KindStatus:
		return errors.BadGateway(genErr.Error()).
			WithKey("generation.status", map[string]string{
				"status": strconv.Itoa(genErr.StatusCode),
				"detail": detail(genErr),
			}).
			WithCause(err)
	default:
		return errors.BadGateway(genErr.Error()).
			WithKey("generation.failed", map[string]string{"detail": detail(genErr)}).
			WithCause(err)
	}
}

func detail(err *generation.Error) string {
	if err.Message != "" {
		return err.Message
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	return string(err.Kind)
}

// failureFor converts a generation error into the failure recorded on a session
func failureFor(err error) domain.Failure {
	appErr := generationError(err)
	return session.NewFailure(domain.FailureTransport, appErr.MessageKey, appErr.Params, err.Error())
}

func pdfError(err error, maxBytes int64) *errors.AppError {
	switch {
	case stderrors.Is(err, extraction.ErrNotPDF):
		return errors.UnsupportedMediaType("only PDF files are accepted").
			WithKey("documents.pdf_only").
			WithCause(err)
	case stderrors.Is(err, extraction.ErrTooLarge):
		return errors.PayloadTooLarge("PDF too large").
			WithKey("documents.pdf_too_large", map[string]string{"limit": strconv.FormatInt(maxBytes>>20, 10)}).
			WithCause(err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Internal(err.Error()).WithCause(err)
	default:
		return errors.Unprocessable("PDF could not be parsed").
			WithKey("documents.pdf_parse_failed").
			WithCause(err)
	}
}

// urlError keeps failures of the remote site (502) apart from pages this
// service refuses to read.
func urlError(err error, maxBytes int64) *errors.AppError {
	switch {
	case stderrors.Is(err, extraction.ErrInvalidURL):
		return errors.BadRequest("invalid URL").WithKey("documents.url_invalid").WithCause(err)
	case stderrors.Is(err, extraction.ErrTooLarge):
		return errors.PayloadTooLarge("page too large").
			WithKey("documents.url_too_large", map[string]string{"limit": strconv.FormatInt(maxBytes>>20, 10)}).
			WithCause(err)
	case stderrors.Is(err, extraction.ErrUnsupported):
		return errors.UnsupportedMediaType("page is not text").WithKey("documents.url_unsupported").WithCause(err)
	case stderrors.Is(err, extraction.ErrEmptyContent), stderrors.Is(err, extraction.ErrUnreadable):
		return errors.Unprocessable("page has no readable text").WithKey("documents.url_no_text").WithCause(err)
	default:
		return errors.BadGateway("fetching URL failed").WithKey("documents.url_fetch_failed").WithCause(err)
	}
}
