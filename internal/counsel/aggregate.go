package counsel

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/gradfund/counselor/internal/lender"
	"github.com/gradfund/counselor/internal/recstore"
)

// Bundle is the aggregated text context one recommendation prompt needs.
type Bundle struct {
	LendersData         string
	StudentDetails      string
	SimilarCases        string
	MatchingLenders     string
	ConversationHistory string
}

// LenderSearcher is the slice of the lender directory the aggregator needs.
type LenderSearcher interface {
	Search(ctx context.Context, query string) ([]lender.Lender, error)
}

// Aggregator gathers the context bundle for one request. The store lookups
// and the student serialization are independent and run concurrently; a
// failure in any of them fails the whole aggregation. The catalog text never
// changes, so it is rendered once at construction instead of per call.
type Aggregator struct {
	catalogText string
	recs        recstore.Store
	lenders     LenderSearcher
	workers     *semaphore.Weighted
}

func NewAggregator(catalog []lender.Lender, recs recstore.Store, lenders LenderSearcher, workers *semaphore.Weighted) *Aggregator {
	return &Aggregator{
		catalogText: lender.FormatCatalog(catalog),
		recs:        recs,
		lenders:     lenders,
		workers:     workers,
	}
}

// Build waits for every fetch before returning; the first failure cancels the
// rest and is returned as the aggregation error.
func (a *Aggregator) Build(ctx context.Context, details StudentDetails, history []Turn) (Bundle, error) {
	bundle := Bundle{
		LendersData:         a.catalogText,
		ConversationHistory: JoinHistory(history),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		serialized, err := details.Serialize()
		if err != nil {
			return err
		}
		bundle.StudentDetails = serialized
		return nil
	})

	g.Go(func() error {
		if err := a.workers.Acquire(gctx, 1); err != nil {
			return err
		}
		defer a.workers.Release(1)

		records, err := a.recs.FindSimilar(gctx, details)
		if err != nil {
			return fmt.Errorf("similar recommendations: %w", err)
		}
		bundle.SimilarCases = recstore.Digest(records)
		return nil
	})

	g.Go(func() error {
		if err := a.workers.Acquire(gctx, 1); err != nil {
			return err
		}
		defer a.workers.Release(1)

		matches, err := a.lenders.Search(gctx, details.LenderQuery())
		if err != nil {
			return fmt.Errorf("lender search: %w", err)
		}
		bundle.MatchingLenders = lender.Digest(matches)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return bundle, nil
}

// JoinHistory renders turns as newline-joined "role: content" lines in their
// original order. A turn with no role is rendered raw rather than dropped.
func JoinHistory(history []Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Role) == "" {
			lines = append(lines, t.Content)
			continue
		}
		lines = append(lines, t.Role+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
