package filter

import (
	"strings"

	"github.com/amishk599/jobmatch/internal/model"
)

// KeywordAndLocationFilter admits jobs whose text contains any of the
// configured keywords and whose location contains any of the configured
// locations. Matching is case-insensitive. Empty lists are treated as
// "match all". A location term found in the job text also passes, so a
// "remote" filter matches postings with a blank location field.
type KeywordAndLocationFilter struct {
	keywordsAny []string
	locationAny []string
}

// New returns a filter over the given keyword and location term lists.
func New(keywordsAny, locationAny []string) *KeywordAndLocationFilter {
	return &KeywordAndLocationFilter{
		keywordsAny: keywordsAny,
		locationAny: locationAny,
	}
}

// Match reports whether the job passes both term lists.
func (f *KeywordAndLocationFilter) Match(job model.Job) bool {
	text := strings.ToLower(job.Text())

	if len(f.keywordsAny) > 0 && !containsAny(text, f.keywordsAny) {
		return false
	}

	if len(f.locationAny) > 0 {
		loc := strings.ToLower(job.Location)
		if !containsAny(loc, f.locationAny) && !containsAny(text, f.locationAny) {
			return false
		}
	}

	return true
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
