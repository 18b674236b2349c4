package i18n_test

import (
	"context"
	"testing"

	"github.com/morich/attract-backend/pkg/i18n"
	"github.com/stretchr/testify/assert"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", i18n.LocaleJapanese},
		{"ja-JP,ja;q=0.9", i18n.LocaleJapanese},
		{"en-US,en;q=0.9,ja;q=0.8", i18n.LocaleEnglish},
		{"de-DE,fr;q=0.5", i18n.DefaultLocale},
		{"fr, EN-gb;q=0.7", i18n.LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, i18n.ParseAcceptLanguage(tt.header))
		})
	}
}

func TestLocalizer_T(t *testing.T) {
	ja := i18n.NewLocalizer(i18n.LocaleJapanese)
	en := i18n.NewLocalizer(i18n.LocaleEnglish)

	assert.Equal(t, "APIキーが設定されていません。", ja.T("generation.api_key_missing"))
	assert.Equal(t, "The API key is not configured.", en.T("generation.api_key_missing"))
	assert.Equal(t, "PDFファイルは5MBまでです。", ja.T("documents.pdf_too_large", map[string]string{"limit": "5"}))
	assert.Equal(t, "missing.key", en.T("missing.key"))
}

func TestNewLocalizer_UnsupportedFallsBack(t *testing.T) {
	assert.Equal(t, i18n.DefaultLocale, i18n.NewLocalizer("de").GetLocale())
}

func TestTFromContext(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), i18n.LocaleEnglish)
	assert.Equal(t, "Unparsable script", i18n.TFromContext(ctx, "sections.fallback_title"))
	assert.Equal(t, "解析不能なスクリプト", i18n.TFromContext(context.Background(), "sections.fallback_title"))
}

func TestParseAcceptLanguage_Quality(t *testing.T) {
	assert.Equal(t, i18n.LocaleJapanese, i18n.ParseAcceptLanguage("en;q=0.5, ja;q=0.8"))
	assert.Equal(t, i18n.LocaleEnglish, i18n.ParseAcceptLanguage("ja;q=0, en"))
	assert.Equal(t, i18n.DefaultLocale, i18n.ParseAcceptLanguage("en;q=abc"))
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	ja := i18n.Keys(i18n.LocaleJapanese)
	en := i18n.Keys(i18n.LocaleEnglish)

	assert.NotEmpty(t, ja)
	assert.Equal(t, ja, en)
}

func TestTWithLocale(t *testing.T) {
	assert.Equal(t, "API error (429): quota", i18n.TWithLocale(i18n.LocaleEnglish, "generation.status", map[string]string{"status": "429", "detail": "quota"}))
	assert.Equal(t, "セッションが見つかりません。", i18n.T("errors.not_found", map[string]string{"resource": i18n.T("resources.session")}))
}
