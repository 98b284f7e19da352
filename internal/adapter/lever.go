package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobmatch/internal/fingerprint"
	"github.com/amishk599/jobmatch/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	handle         string
	companyLabel   string
	maxDescription int
	client         *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
// Descriptions longer than maxDescription characters are truncated.
func NewLeverAdapter(handle, companyLabel string, maxDescription int, client *http.Client) *LeverAdapter {
	if companyLabel == "" {
		companyLabel = handle
	}
	return &LeverAdapter{
		handle:         handle,
		companyLabel:   companyLabel,
		maxDescription: maxDescription,
		client:         client,
	}
}

// FetchJobs retrieves all jobs from the Lever board and normalizes them
// into the unified Job model.
func (a *LeverAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	leverJobs, err := a.fetchPostings(ctx, a.handle)
	if err != nil {
		return nil, &model.FetchError{Provider: model.SourceLever, Token: a.handle, Err: err}
	}

	now := time.Now().UTC()
	jobs := make([]model.Job, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Prefer allLocations when available, fall back to the single location.
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		url := lj.HostedURL
		if url == "" {
			url = lj.ApplyURL
		}
		if url == "" {
			url = fmt.Sprintf("https://jobs.lever.co/%s/%s", a.handle, lj.ID)
		}

		// createdAt is Unix milliseconds.
		var postedAt *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			postedAt = &t
		}

		description := lj.DescriptionPlain
		if description == "" {
			description = extractText(lj.Description)
		}

		jobs = append(jobs, model.Job{
			ID:          fingerprint.Job(model.SourceLever, a.handle, url),
			Source:      model.SourceLever,
			Company:     a.companyLabel,
			Title:       lj.Text,
			Location:    location,
			URL:         url,
			Description: truncate(strings.Join(strings.Fields(description), " "), a.maxDescription),
			PostedAt:    postedAt,
			FirstSeen:   now,
		})
	}

	return jobs, nil
}

// Verify performs a minimal read-only request and reports whether the handle
// resolves to a live board with at least one posting.
func (a *LeverAdapter) Verify(ctx context.Context, handle string) (bool, error) {
	postings, err := a.fetchPostings(ctx, handle)
	if err != nil {
		return false, err
	}
	return len(postings) > 0, nil
}

func (a *LeverAdapter) fetchPostings(ctx context.Context, handle string) ([]leverJob, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, handle)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", handle, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("lever fetch for %s: unexpected status %d", handle, resp.StatusCode),
		}
	}

	var leverJobs []leverJob
	if err := json.NewDecoder(resp.Body).Decode(&leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", handle, err)
	}
	return leverJobs, nil
}
