package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/jobmatch/internal/fingerprint"
	"github.com/amishk599/jobmatch/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
	UpdatedAt   string             `json:"updated_at"`
	CreatedAt   string             `json:"created_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	boardToken     string
	companyLabel   string
	maxDescription int
	client         *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
// Descriptions longer than maxDescription characters are truncated.
func NewGreenhouseAdapter(boardToken, companyLabel string, maxDescription int, client *http.Client) *GreenhouseAdapter {
	if companyLabel == "" {
		companyLabel = boardToken
	}
	return &GreenhouseAdapter{
		boardToken:     boardToken,
		companyLabel:   companyLabel,
		maxDescription: maxDescription,
		client:         client,
	}
}

// FetchJobs retrieves all jobs from the Greenhouse board and normalizes them
// into the unified Job model.
func (a *GreenhouseAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	ghResp, err := a.fetchBoard(ctx, a.boardToken, true)
	if err != nil {
		return nil, &model.FetchError{Provider: model.SourceGreenhouse, Token: a.boardToken, Err: err}
	}

	now := time.Now().UTC()
	jobs := make([]model.Job, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		url := gj.AbsoluteURL
		if url == "" {
			url = fmt.Sprintf("https://boards.greenhouse.io/%s/jobs/%d", a.boardToken, gj.ID)
		}

		job := model.Job{
			ID:          fingerprint.Job(model.SourceGreenhouse, a.boardToken, url),
			Source:      model.SourceGreenhouse,
			Company:     a.companyLabel,
			Title:       gj.Title,
			Location:    gj.Location.Name,
			URL:         url,
			Description: truncate(extractText(gj.Content), a.maxDescription),
			FirstSeen:   now,
		}

		if t := parseGreenhouseTime(gj.UpdatedAt, gj.CreatedAt); t != nil {
			job.PostedAt = t
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// Verify performs a minimal read-only request and reports whether the token
// resolves to a live board with at least one job.
func (a *GreenhouseAdapter) Verify(ctx context.Context, token string) (bool, error) {
	ghResp, err := a.fetchBoard(ctx, token, false)
	if err != nil {
		return false, err
	}
	return len(ghResp.Jobs) > 0, nil
}

func (a *GreenhouseAdapter) fetchBoard(ctx context.Context, token string, withContent bool) (*greenhouseResponse, error) {
	url := fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, token)
	if withContent {
		url += "?content=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("greenhouse fetch for %s: unexpected status %d", token, resp.StatusCode),
		}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}
	return &ghResp, nil
}

// parseGreenhouseTime coerces the first parseable RFC3339 candidate to UTC.
func parseGreenhouseTime(candidates ...string) *time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}
