// Package i18n translates user-facing messages. Catalogs are embedded JSON
// files, one per locale, addressed by dot separated keys such as
// "generation.api_key_missing". Parameters are written as {name}.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed messages/*.json
var messagesFS embed.FS

// Supported locales. Japanese is the product language.
const (
	LocaleJapanese = "ja"
	LocaleEnglish  = "en"
	DefaultLocale  = LocaleJapanese
)

var supportedLocales = []string{LocaleJapanese, LocaleEnglish}

type localeKey struct{}

var (
	catalogs     map[string]map[string]string
	catalogsOnce sync.Once
)

// loadCatalogs reads every embedded catalog and flattens it to dot keys
func loadCatalogs() {
	catalogsOnce.Do(func() {
		catalogs = make(map[string]map[string]string, len(supportedLocales))

		for _, locale := range supportedLocales {
			data, err := messagesFS.ReadFile("messages/" + locale + ".json")
			if err != nil {
				continue
			}

			var tree map[string]any
			if err := json.Unmarshal(data, &tree); err != nil {
				continue
			}

			flat := make(map[string]string)
			flatten("", tree, flat)
			catalogs[locale] = flat
		}
	})
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case string:
			out[key] = v
		case map[string]any:
			flatten(key, v, out)
		}
	}
}

// Localizer translates into one locale
type Localizer struct {
	locale string
}

// NewLocalizer creates a localizer. Unsupported locales use DefaultLocale.
func NewLocalizer(locale string) *Localizer {
	if !isSupported(locale) {
		locale = DefaultLocale
	}
	return &Localizer{locale: locale}
}

// LocalizerFromContext creates a localizer for the locale stored in ctx
func LocalizerFromContext(ctx context.Context) *Localizer {
	return NewLocalizer(GetLocaleFromContext(ctx))
}

// T translates key. Missing translations fall back to DefaultLocale and then
// to the key itself.
func (l *Localizer) T(key string, params ...map[string]string) string {
	loadCatalogs()

	msg, ok := catalogs[l.locale][key]
	if !ok {
		msg, ok = catalogs[DefaultLocale][key]
	}
	if !ok {
		return key
	}

	if len(params) == 0 || len(params[0]) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(params[0])*2)
	for k, v := range params[0] {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// GetLocale returns the locale of l
func (l *Localizer) GetLocale() string {
	return l.locale
}

// Keys returns every key of a locale's catalog, sorted
func Keys(locale string) []string {
	loadCatalogs()

	keys := make([]string, 0, len(catalogs[locale]))
	for k := range catalogs[locale] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithLocale adds locale to context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocaleFromContext retrieves locale from context
func GetLocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}

// ParseAcceptLanguage returns the supported locale with the highest quality
// in an Accept-Language header. Region subtags are ignored and ties go to
// the earlier entry.
func ParseAcceptLanguage(header string) string {
	best, bestQ := DefaultLocale, 0.0
	for _, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		tag, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(tag)), "-")
		if !isSupported(tag) {
			continue
		}

		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q > bestQ {
			best, bestQ = tag, q
		}
	}
	return best
}

func isSupported(locale string) bool {
	for _, l := range supportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

// T translates using the default locale
func T(key string, params ...map[string]string) string {
	return NewLocalizer(DefaultLocale).T(key, params...)
}

// TWithLocale translates using the specified locale
func TWithLocale(locale, key string, params ...map[string]string) string {
	return NewLocalizer(locale).T(key, params...)
}

// TFromContext translates using locale from context
func TFromContext(ctx context.Context, key string, params ...map[string]string) string {
	return LocalizerFromContext(ctx).T(key, params...)
}
