package domain

import "time"

// Section headings the prompt asks the model to produce, in outline order
const (
	SectionKeywords = "【響くキーワード】"
	SectionMatching = "【最強のマッチングポイント】"
	SectionOpening  = "【心を掴むアトラクト・オープニング】"
	SectionTalk     = "【響く！魅力づけトーク＆キーワード】"
	SectionQuestion = "【興味を深掘りする魔法の質問】"
	SectionClosing  = "【応募意思を引き出すクロージング・ステップ】"
)

// Outline lists the six headings in the order the prompt requests them
var Outline = []string{
	SectionKeywords,
	SectionMatching,
	SectionOpening,
	SectionTalk,
	SectionQuestion,
	SectionClosing,
}

// Section is one titled block of the generated script
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GenerationRequest carries the two texts a script is generated from.
// JSON names follow the wire format browsers already send.
type GenerationRequest struct {
	CandidateText string `json:"jobSeekerInfo" validate:"notblank"`
	OfferText     string `json:"jobOfferInfo" validate:"notblank"`
}

// Script is the outcome of a buffered generation
type Script struct {
	Raw      string    `json:"raw"`
	Sections []Section `json:"sections"`
}

// SessionStatus is the lifecycle state of a generation session
type SessionStatus string

const (
	StatusIdle       SessionStatus = "idle"
	StatusGenerating SessionStatus = "generating"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// FailureKind classifies what went wrong for the user
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureTransport  FailureKind = "transport"
	FailureFormat     FailureKind = "format"
)

// Failure is a user-facing error recorded on a session.
// MessageKey is an i18n key; Detail is the untranslated cause, if any.
type Failure struct {
	Kind       FailureKind       `json:"kind"`
	MessageKey string            `json:"-"`
	Params     map[string]string `json:"-"`
	Message    string            `json:"message"`
	Detail     string            `json:"detail,omitempty"`
}

// Snapshot is the read model of a session returned to clients
type Snapshot struct {
	SessionID     string        `json:"session_id"`
	Status        SessionStatus `json:"status"`
	Generation    uint64        `json:"generation"`
	CandidateText string        `json:"candidate_text"`
	OfferText     string        `json:"offer_text"`
	Raw           string        `json:"raw"`
	Sections      []Section     `json:"sections"`
	Keywords      []string      `json:"keywords,omitempty"`
	Error         *Failure      `json:"error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ExtractedDocument is the text pulled out of an uploaded file or a web page
type ExtractedDocument struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Pages  int    `json:"pages,omitempty"`
}
