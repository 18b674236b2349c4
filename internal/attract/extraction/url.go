package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/morich/attract-backend/internal/attract/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultMaxPageBytes bounds how much of a page is read
const DefaultMaxPageBytes = 2 << 20

// URL loads a job posting page and returns its visible text
type URL struct {
	client   *http.Client
	maxBytes int64
}

// NewURL creates a page extractor. A nil client gets a 15 second timeout.
func NewURL(client *http.Client, maxBytes int64) *URL {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPageBytes
	}
	return &URL{client: client, maxBytes: maxBytes}
}

// MaxBytes returns the largest page that is read
func (e *URL) MaxBytes() int64 {
	return e.maxBytes
}

// ParseURL accepts absolute http and https URLs only
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Extract fetches rawURL with a single GET
func (e *URL) Extract(ctx context.Context, rawURL string) (*domain.ExtractedDocument, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")
	req.Header.Set("User-Agent", "attract-service/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if int64(len(body)) > e.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	var text string
	switch mediaType {
	case "text/html", "application/xhtml+xml", "":
		utf8Body, err := charset.NewReader(bytes.NewReader(body), contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		text, err = VisibleText(utf8Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	case "text/plain":
		text = normalizeLines(string(body))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mediaType)
	}

	if text == "" {
		return nil, ErrEmptyContent
	}

	return &domain.ExtractedDocument{Source: u.String(), Text: text}, nil
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true, "head": true, "nav": true, "footer": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "td": true, "th": true, "table": true, "section": true,
	"article": true, "header": true, "main": true, "dl": true, "dt": true, "dd": true,
}

// VisibleText returns the human-readable text of an HTML document, one
// block per line
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	return normalizeLines(b.String()), nil
}

// normalizeLines collapses runs of whitespace inside lines and drops blank lines
func normalizeLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
