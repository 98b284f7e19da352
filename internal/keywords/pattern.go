package keywords

import (
	"context"
	"strings"
)

// vocabulary is the fixed set of technology and role terms the pattern
// strategy matches against. Lowercase, 1-3 words each.
var vocabulary = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "rust",
	"c++", "c#", "ruby", "php", "scala", "kotlin", "swift", "sql",
	"react", "vue", "angular", "node", "node.js", "django", "flask",
	"spring", "rails", ".net", "graphql", "rest api", "grpc",
	"kubernetes", "docker", "terraform", "ansible", "aws", "gcp", "azure",
	"linux", "ci/cd", "jenkins", "github actions", "prometheus", "grafana",
	"postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch",
	"kafka", "rabbitmq", "spark", "airflow", "snowflake",
	"machine learning", "deep learning", "data engineering", "data science",
	"nlp", "llm", "computer vision", "pytorch", "tensorflow",
	"backend", "frontend", "full stack", "fullstack", "devops", "sre",
	"site reliability", "platform engineer", "software engineer",
	"engineering manager", "tech lead", "staff engineer", "security",
	"distributed systems", "microservices", "observability", "etl",
	"product manager", "data analyst", "qa", "test automation",
	"agile", "scrum", "remote",
}

// PatternExtractor matches resume text against the fixed vocabulary.
// Deterministic, no network, always available.
type PatternExtractor struct{}

// NewPatternExtractor returns the vocabulary-based extractor.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract returns the vocabulary terms contained in the resume text.
// Empty input yields an empty set.
func (e *PatternExtractor) Extract(_ context.Context, resumeText string) ([]string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, nil
	}

	text := strings.ToLower(resumeText)
	var out []string
	for _, term := range vocabulary {
		if strings.Contains(text, term) {
			out = append(out, term)
		}
	}
	return out, nil
}
