package adapter

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), extracts the text content, then collapses
// whitespace. Falls back to a bare tag strip if the fragment does not parse.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)

	plain := unescaped
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped)); err == nil {
		plain = doc.Text()
	} else {
		plain = htmlTagRegex.ReplaceAllString(unescaped, "")
	}

	return strings.Join(strings.Fields(plain), " ")
}

// truncate bounds s to max bytes without splitting a multi-byte rune.
// Zero or negative max means unbounded.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
