package filter

import (
	"testing"

	"github.com/amishk599/jobmatch/internal/model"
)

func TestMatch(t *testing.T) {
	job := model.Job{
		Title:       "Senior Go Engineer",
		Company:     "Acme",
		Location:    "San Francisco, CA",
		Description: "Distributed systems, hybrid remote possible.",
	}

	tests := []struct {
		name     string
		keywords []string
		location []string
		want     bool
	}{
		{"empty lists pass all", nil, nil, true},
		{"keyword match", []string{"go"}, nil, true},
		{"keyword miss", []string{"cobol"}, nil, false},
		{"location match", nil, []string{"san francisco"}, true},
		{"location via description", nil, []string{"remote"}, true},
		{"location miss", nil, []string{"berlin"}, false},
		{"both required", []string{"go"}, []string{"berlin"}, false},
		{"case insensitive", []string{"GO ENGINEER"}, []string{"SAN FRANCISCO"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := New(tc.keywords, tc.location)
			if got := f.Match(job); got != tc.want {
				t.Errorf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatch_BlankLocationWithRemoteFilter(t *testing.T) {
	job := model.Job{Title: "Platform Engineer", Description: "Fully remote role."}
	if !New(nil, []string{"remote"}).Match(job) {
		t.Error("expected remote filter to match via job text when location is blank")
	}
}
