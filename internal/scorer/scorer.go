// Package scorer computes the keyword match percentage for a job.
package scorer

import (
	"math"
	"strings"
)

// Score returns the 0-100 match percentage and the number of matched keywords
// for the given job text. Each keyword counts when it appears as a
// case-insensitive substring of the text. An empty keyword set scores (0, 0).
func Score(jobText string, keywords []string) (percentage, matched int) {
	if len(keywords) == 0 {
		return 0, 0
	}

	text := strings.ToLower(jobText)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			matched++
		}
	}

	percentage = int(math.Round(float64(matched) / float64(len(keywords)) * 100))
	return percentage, matched
}
