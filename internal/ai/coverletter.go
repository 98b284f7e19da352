package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/jobmatch/internal/model"
)

const coverLetterSystemPrompt = "You are a helpful assistant that edits job application documents."

// GenerateCoverLetter rewrites the candidate's cover letter template for a
// specific posting. Free-form output, plain text.
func GenerateCoverLetter(ctx context.Context, provider LLMProvider, job model.Job, templateText string) (string, error) {
	prompt := fmt.Sprintf(`You are updating a cover letter for a job application.

Rules:
- Use ONLY the candidate's existing experience and facts. Never invent or exaggerate.
- Preserve the candidate's voice, tone, and formatting as much as possible.
- Make the cover letter more relevant to the job posting using only existing information.
- Fix grammar and professionalism issues, but avoid unnecessary changes.
- Output plain text only, no markdown.
- Do NOT include a standalone job title heading at the top.

Job posting:
Title: %s
Company: %s
Location: %s
Description:
%s

Candidate cover letter:
%s`, job.Title, job.Company, job.Location, job.Description, templateText)

	out, err := provider.Complete(ctx, Request{
		System:      coverLetterSystemPrompt,
		User:        prompt,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("generate cover letter: %w", err)
	}
	return strings.TrimSpace(out), nil
}
