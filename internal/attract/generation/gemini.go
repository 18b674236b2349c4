package generation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the model the hosted product was tuned against
const DefaultGeminiModel = "gemini-2.5-flash-preview-04-17"

// GeminiConfig holds the Gemini API settings
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
}

// Gemini streams completions from the Gemini API
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini creates a Gemini generator. It does not contact the API.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}

	var genCfg *genai.GenerateContentConfig
	if cfg.Temperature > 0 {
		genCfg = &genai.GenerateContentConfig{Temperature: genai.Ptr(cfg.Temperature)}
	}

	return &Gemini{client: client, model: model, config: genCfg}, nil
}

func (g *Gemini) Name() string {
	return "gemini:" + g.model
}

func (g *Gemini) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var finish genai.FinishReason
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), g.config) {
			if err != nil {
				yield("", classifyGeminiError(err))
				return
			}

			if blocked := blockReason(resp); blocked != "" {
				yield("", &Error{Kind: KindEndpoint, Message: "prompt blocked: " + blocked})
				return
			}
			if reason := finishReason(resp); reason != "" {
				finish = reason
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}

		// A stream cut short by safety filters or the token limit is not a script
		if finish != "" && finish != genai.FinishReasonStop && finish != genai.FinishReasonUnspecified {
			yield("", &Error{Kind: KindEndpoint, Message: "generation stopped early: " + string(finish)})
		}
	}
}

func finishReason(resp *genai.GenerateContentResponse) genai.FinishReason {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return resp.Candidates[0].FinishReason
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	reason := string(resp.PromptFeedback.BlockReason)
	if reason == "" || reason == "BLOCKED_REASON_UNSPECIFIED" {
		return ""
	}
	if msg := resp.PromptFeedback.BlockReasonMessage; msg != "" {
		return reason + " (" + msg + ")"
	}
	return reason
}

func classifyGeminiError(err error) *Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &Error{Kind: KindStatus, StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	return transportError(err)
}
