// Package parser splits a generated script into titled sections.
//
// Every section in well-formed output starts with Marker followed by the
// title on the same line. The marker has no escape: if the model writes
// "### " inside a paragraph the text is split there. That is a known
// limitation of the output format and is left as is.
package parser

import (
	"strings"

	"github.com/morich/attract-backend/internal/attract/domain"
)

// Marker precedes every section heading
const Marker = "### "

// FallbackTitle labels the raw response when it cannot be parsed
const FallbackTitle = "解析不能なスクリプト"

// Parse splits a complete response into sections. Text before the first
// marker is dropped as preamble. Sections without a title or without a body
// are skipped. It returns an empty slice when nothing parses.
func Parse(text string) []domain.Section {
	sections := []domain.Section{}

	start := strings.Index(text, Marker)
	if start < 0 {
		return sections
	}

	for _, segment := range strings.Split(text[start:], Marker) {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		title, body, _ := strings.Cut(segment, "\n")
		title = strings.TrimSpace(title)
		content := strings.TrimSpace(body)
		if title == "" || content == "" {
			continue
		}

		sections = append(sections, domain.Section{Title: title, Content: content})
	}

	return sections
}

// Join renders sections back into marker form. Parse(Join(s)) == s for any
// s returned by Parse.
func Join(sections []domain.Section) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(Marker)
		b.WriteString(s.Title)
		b.WriteString("\n")
		b.WriteString(s.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Fallback wraps unparsable text as a single section so it can still be shown
func Fallback(raw string) []domain.Section {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []domain.Section{}
	}
	return []domain.Section{{Title: FallbackTitle, Content: raw}}
}

// Find returns the first section with the given title
func Find(sections []domain.Section, title string) (domain.Section, bool) {
	for _, s := range sections {
		if s.Title == title {
			return s, true
		}
	}
	return domain.Section{}, false
}

// Keywords splits the keyword section into individual keywords. Commas in
// ASCII, full-width and ideographic form are all accepted, and emphasis
// markers around a keyword are removed.
func Keywords(section domain.Section) []string {
	fields := strings.FieldsFunc(section.Content, func(r rune) bool {
		return r == ',' || r == '，' || r == '、' || r == '\n'
	})

	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.Trim(strings.TrimSpace(f), "*"))
		if f != "" {
			keywords = append(keywords, f)
		}
	}
	return keywords
}
