// Package docs resolves document references to plain text.
package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/amishk599/jobmatch/internal/model"
)

var googleDocPattern = regexp.MustCompile(`docs\.google\.com/document/d/([a-zA-Z0-9_-]+)`)

// GoogleDocProvider fetches the plain-text export of a shareable Google Doc.
type GoogleDocProvider struct {
	baseURL string // overridable for tests
	client  *http.Client
}

// NewGoogleDocProvider creates a provider using the given HTTP client.
func NewGoogleDocProvider(client *http.Client) *GoogleDocProvider {
	return &GoogleDocProvider{
		baseURL: "https://docs.google.com",
		client:  client,
	}
}

// FetchText resolves a shareable Google Doc link to the document's plain text
// via the txt export endpoint.
func (p *GoogleDocProvider) FetchText(ctx context.Context, ref string) (string, error) {
	docID := extractDocID(ref)
	if docID == "" {
		return "", fmt.Errorf("invalid google doc link %q", ref)
	}

	url := fmt.Sprintf("%s/document/d/%s/export?format=txt", p.baseURL, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("doc fetch: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("doc fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("doc fetch: unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("doc fetch: %w", err)
	}
	return string(body), nil
}

// extractDocID pulls the document id out of a shareable link.
// Returns "" when the link does not look like a Google Doc URL.
func extractDocID(link string) string {
	m := googleDocPattern.FindStringSubmatch(link)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}
