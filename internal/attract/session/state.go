// Package session holds the state of one script generation workflow.
//
// State only changes through Reduce. Every generation carries a token; events
// from a superseded generation carry an older token and are ignored, so the
// latest request always wins.
package session

import (
	"github.com/morich/attract-backend/internal/attract/domain"
	"github.com/morich/attract-backend/internal/attract/parser"
	"github.com/morich/attract-backend/pkg/i18n"
)

// Message keys recorded on failures
const (
	KeyInputsRequired = "generation.inputs_required"
	KeyFormatInvalid  = "generation.format_invalid"
)

// State is an immutable view of a session. Reduce never mutates its input.
type State struct {
	Status        domain.SessionStatus
	Generation    uint64
	CandidateText string
	OfferText     string
	Raw           string
	Sections      []domain.Section
	Failure       *domain.Failure

	// FallbackSection exposes unparsable output as a single section
	FallbackSection bool
}

// Initial returns the idle state of a new session
func Initial(fallbackSection bool) State {
	return State{
		Status:          domain.StatusIdle,
		Sections:        []domain.Section{},
		FallbackSection: fallbackSection,
	}
}

// Event is an input to Reduce
type Event interface {
	event()
}

// StartGenerate begins generation number Generation for the given inputs
type StartGenerate struct {
	Generation uint64
	Candidate  string
	Offer      string
}

// ReceiveChunk appends streamed text
type ReceiveChunk struct {
	Generation uint64
	Text       string
}

// CompleteSuccess ends a stream that delivered all of its text
type CompleteSuccess struct {
	Generation uint64
}

// CompleteError ends a stream that failed. Failure is what the user sees.
type CompleteError struct {
	Generation uint64
	Failure    domain.Failure
}

// RejectInput records a submit with a blank field. No request is made.
type RejectInput struct {
	Candidate string
	Offer     string
}

func (StartGenerate) event()   {}
func (ReceiveChunk) event()    {}
func (CompleteSuccess) event() {}
func (CompleteError) event()   {}
func (RejectInput) event()     {}

// Accepts reports whether e would change s. Stream events are only accepted
// for the current generation while it is still running.
func Accepts(s State, e Event) bool {
	switch e := e.(type) {
	case StartGenerate:
		return e.Generation > s.Generation
	case ReceiveChunk:
		return s.running(e.Generation)
	case CompleteSuccess:
		return s.running(e.Generation)
	case CompleteError:
		return s.running(e.Generation)
	case RejectInput:
		return true
	default:
		return false
	}
}

func (s State) running(generation uint64) bool {
	return s.Status == domain.StatusGenerating && s.Generation == generation
}

// Reduce applies e to s and returns the next state
func Reduce(s State, e Event) State {
	if !Accepts(s, e) {
		return s
	}

	switch e := e.(type) {
	case StartGenerate:
		s.Status = domain.StatusGenerating
		s.Generation = e.Generation
		s.CandidateText = e.Candidate
		s.OfferText = e.Offer
		s.Raw = ""
		s.Sections = []domain.Section{}
		s.Failure = nil

	case ReceiveChunk:
		s.Raw += e.Text

	case CompleteSuccess:
		sections := parser.Parse(s.Raw)
		if len(sections) > 0 {
			s.Status = domain.StatusCompleted
			s.Sections = sections
			break
		}
		s.Status = domain.StatusFailed
		s.Failure = newFailure(domain.FailureFormat, KeyFormatInvalid, "")
		if s.FallbackSection {
			s.Sections = parser.Fallback(s.Raw)
		}

	case CompleteError:
		failure := e.Failure
		s.Status = domain.StatusFailed
		s.Raw = ""
		s.Sections = []domain.Section{}
		s.Failure = &failure

	case RejectInput:
		s.Status = domain.StatusFailed
		s.CandidateText = e.Candidate
		s.OfferText = e.Offer
		s.Raw = ""
		s.Sections = []domain.Section{}
		s.Failure = newFailure(domain.FailureValidation, KeyInputsRequired, "")
	}

	return s
}

// Terminal reports whether s is a finished generation
func (s State) Terminal() bool {
	return s.Status == domain.StatusCompleted || s.Status == domain.StatusFailed
}

// NewFailure builds a failure whose message is the default-locale text of key
func NewFailure(kind domain.FailureKind, key string, params map[string]string, detail string) domain.Failure {
	return domain.Failure{
		Kind:       kind,
		MessageKey: key,
		Params:     params,
		Message:    i18n.T(key, params),
		Detail:     detail,
	}
}

func newFailure(kind domain.FailureKind, key, detail string) *domain.Failure {
	f := NewFailure(kind, key, nil, detail)
	return &f
}
