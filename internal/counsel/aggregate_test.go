package counsel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/sync/semaphore"

	"github.com/gradfund/counselor/internal/lender"
	"github.com/gradfund/counselor/internal/recstore"
)

type failingRecStore struct{}

func (failingRecStore) FindSimilar(context.Context, map[string]any) ([]recstore.Record, error) {
	return nil, errors.New("vector backend unreachable")
}

func (failingRecStore) Store(context.Context, map[string]any, string, map[string]string) error {
	return errors.New("vector backend unreachable")
}

func (failingRecStore) Close() error { return nil }

func newTestAggregator(recs recstore.Store, searcher LenderSearcher) *Aggregator {
	if recs == nil {
		recs = recstore.NewInMemoryStore()
	}
	if searcher == nil {
		s := lender.NewStore()
		_ = s.Index(context.Background(), lender.Catalog())
		searcher = s
	}
	return NewAggregator(lender.Catalog(), recs, searcher, semaphore.NewWeighted(4))
}

func TestBuildBundleContents(t *testing.T) {
	recs := recstore.NewInMemoryStore()
	details := ashaDetails()
	if err := recs.Store(context.Background(), details, "take the no-cosigner route", map[string]string{"user_id": "u0"}); err != nil {
		t.Fatalf("seed Store() error = %v", err)
	}

	a := newTestAggregator(recs, nil)
	history := []Turn{
		{Role: RoleStudent, Content: "hello"},
		{Role: RoleCounselor, Content: "hi, tell me about your plans"},
	}

	bundle, err := a.Build(context.Background(), details, history)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !strings.Contains(bundle.LendersData, "Axis Bank") {
		t.Fatalf("LendersData missing catalog entry: %q", bundle.LendersData)
	}
	if !strings.Contains(bundle.StudentDetails, `"name": "Asha"`) {
		t.Fatalf("StudentDetails not serialized: %q", bundle.StudentDetails)
	}
	if !strings.Contains(bundle.SimilarCases, "no-cosigner route") {
		t.Fatalf("SimilarCases missing seeded record: %q", bundle.SimilarCases)
	}
	if !strings.Contains(bundle.MatchingLenders, "Prodigy Finance") {
		t.Fatalf("MatchingLenders missing USA lender: %q", bundle.MatchingLenders)
	}
	if want := "student: hello\ncounselor: hi, tell me about your plans"; bundle.ConversationHistory != want {
		t.Fatalf("ConversationHistory = %q, want %q", bundle.ConversationHistory, want)
	}
}

func TestBuildFailsFastOnStoreError(t *testing.T) {
	a := newTestAggregator(failingRecStore{}, nil)

	_, err := a.Build(context.Background(), ashaDetails(), nil)
	if err == nil {
		t.Fatalf("Build() error = nil, want similarity failure")
	}
	if !strings.Contains(err.Error(), "similar recommendations") {
		t.Fatalf("error = %v, want similarity query failure", err)
	}
}

func TestBuildFailsFastOnLenderSearchError(t *testing.T) {
	a := newTestAggregator(nil, failingSearcher{})

	_, err := a.Build(context.Background(), ashaDetails(), nil)
	if err == nil {
		t.Fatalf("Build() error = nil, want lender search failure")
	}
	if !strings.Contains(err.Error(), "lender search") {
		t.Fatalf("error = %v, want lender search failure", err)
	}
}

func TestJoinHistoryRendersMalformedTurnsRaw(t *testing.T) {
	got := JoinHistory([]Turn{
		{Role: RoleStudent, Content: "hi"},
		{Content: "stray line"},
	})
	if want := "student: hi\nstray line"; got != want {
		t.Fatalf("JoinHistory() = %q, want %q", got, want)
	}

	if got := JoinHistory(nil); got != "" {
		t.Fatalf("JoinHistory(nil) = %q, want empty", got)
	}
}
