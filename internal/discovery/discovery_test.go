package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/amishk599/jobmatch/internal/ai"
	"github.com/amishk599/jobmatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Complete(_ context.Context, _ ai.Request) (string, error) {
	return s.response, s.err
}

// stubVerifier accepts the tokens in alive and errors on tokens in broken.
type stubVerifier struct {
	alive  map[string]bool
	broken map[string]bool
}

func (v *stubVerifier) Verify(_ context.Context, token string) (bool, error) {
	if v.broken[token] {
		return false, errors.New("board unreachable")
	}
	return v.alive[token], nil
}

func fallbackList() model.SourceList {
	return model.SourceList{
		Greenhouse: []model.BoardSource{{Token: "stripe"}},
		Lever:      []model.BoardSource{{Token: "netflix"}},
	}
}

func tokens(boards []model.BoardSource) []string {
	out := make([]string, 0, len(boards))
	for _, b := range boards {
		out = append(out, b.Token)
	}
	sort.Strings(out)
	return out
}

func newTestDiscoverer(p ai.LLMProvider, gh, lv *stubVerifier) *Discoverer {
	verifiers := map[string]model.BoardVerifier{
		model.SourceGreenhouse: gh,
		model.SourceLever:      lv,
	}
	return NewDiscoverer(p, verifiers, fallbackList(), discardLogger())
}

func TestDiscover_KeepsOnlyVerifiedBoards(t *testing.T) {
	p := &stubProvider{response: `{"sources": [
		{"provider": "greenhouse", "token": "cloudflare"},
		{"provider": "greenhouse", "token": "deadco"},
		{"provider": "lever", "token": "plaid"},
		{"provider": "lever", "token": "ghosttown"}
	]}`}
	gh := &stubVerifier{alive: map[string]bool{"cloudflare": true}}
	lv := &stubVerifier{alive: map[string]bool{"plaid": true}}

	list := newTestDiscoverer(p, gh, lv).Discover(context.Background(), "go engineer resume")

	if got := tokens(list.Greenhouse); len(got) != 1 || got[0] != "cloudflare" {
		t.Errorf("greenhouse boards = %v, want [cloudflare]", got)
	}
	if got := tokens(list.Lever); len(got) != 1 || got[0] != "plaid" {
		t.Errorf("lever boards = %v, want [plaid]", got)
	}
	if !list.ResumeDerived {
		t.Error("expected ResumeDerived to be set")
	}
}

func TestDiscover_BareArrayResponse(t *testing.T) {
	p := &stubProvider{response: `[{"provider": "lever", "token": "ramp"}]`}
	gh := &stubVerifier{}
	lv := &stubVerifier{alive: map[string]bool{"ramp": true}}

	list := newTestDiscoverer(p, gh, lv).Discover(context.Background(), "resume")
	if got := tokens(list.Lever); len(got) != 1 || got[0] != "ramp" {
		t.Errorf("lever boards = %v, want [ramp]", got)
	}
}

func TestDiscover_NormalizesAndDedupes(t *testing.T) {
	p := &stubProvider{response: `{"sources": [
		{"provider": "Greenhouse", "token": " Stripe "},
		{"provider": "greenhouse", "token": "stripe"},
		{"provider": "smartrecruiters", "token": "other"},
		{"provider": "greenhouse", "token": ""}
	]}`}
	gh := &stubVerifier{alive: map[string]bool{"stripe": true}}

	list := newTestDiscoverer(p, gh, &stubVerifier{}).Discover(context.Background(), "resume")
	if got := tokens(list.Greenhouse); len(got) != 1 || got[0] != "stripe" {
		t.Errorf("greenhouse boards = %v, want deduped [stripe]", got)
	}
}

func TestDiscover_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		p    *stubProvider
		gh   *stubVerifier
	}{
		{"provider error", &stubProvider{err: errors.New("timeout")}, &stubVerifier{}},
		{"malformed json", &stubProvider{response: "not json"}, &stubVerifier{}},
		{"empty sources", &stubProvider{response: `{"sources": []}`}, &stubVerifier{}},
		{
			"nothing verifies",
			&stubProvider{response: `{"sources": [{"provider": "greenhouse", "token": "dead"}]}`},
			&stubVerifier{},
		},
		{
			"verification errors",
			&stubProvider{response: `{"sources": [{"provider": "greenhouse", "token": "flaky"}]}`},
			&stubVerifier{broken: map[string]bool{"flaky": true}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list := newTestDiscoverer(tc.p, tc.gh, &stubVerifier{}).Discover(context.Background(), "resume")
			want := fallbackList()
			if got := tokens(list.Greenhouse); len(got) != 1 || got[0] != want.Greenhouse[0].Token {
				t.Errorf("greenhouse = %v, want fallback %v", got, tokens(want.Greenhouse))
			}
			if list.ResumeDerived {
				t.Error("fallback list must not be marked resume derived")
			}
		})
	}
}

func TestDiscover_NilProviderOrEmptyResume(t *testing.T) {
	d := NewDiscoverer(nil, nil, fallbackList(), discardLogger())
	if list := d.Discover(context.Background(), "resume"); list.Empty() {
		t.Error("nil provider should yield fallback, got empty list")
	}

	d2 := newTestDiscoverer(&stubProvider{response: "{}"}, &stubVerifier{}, &stubVerifier{})
	if list := d2.Discover(context.Background(), "   "); list.Empty() {
		t.Error("blank resume should yield fallback, got empty list")
	}
}
