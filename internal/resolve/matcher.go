package resolve

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/metrics"
)

// Outcome classifies a resolution.
type Outcome string

const (
	// OutcomeResolved means a slug suffix matched and the entity was loaded.
	OutcomeResolved Outcome = "resolved"
	// OutcomeUnresolved means no indexed slug ends the query.
	OutcomeUnresolved Outcome = "unresolved"
	// OutcomeDrift means the trie matched a slug the store no longer has.
	OutcomeDrift Outcome = "drift"
)

// Lookup loads entities by slug. location.Store satisfies it.
type Lookup interface {
	StateBySlug(ctx context.Context, slug string) (*location.State, error)
	DistrictBySlug(ctx context.Context, slug string) (*location.District, error)
	PlaceBySlug(ctx context.Context, slug string) (*location.Place, error)
}

// Result is the outcome of Resolve. Exactly one of State, District or Place
// is set when Outcome is OutcomeResolved.
type Result struct {
	Outcome  Outcome            `json:"outcome"`
	Query    string             `json:"query"`
	Kind     location.Kind      `json:"kind,omitempty"`
	Slug     string             `json:"slug,omitempty"`
	State    *location.State    `json:"state,omitempty"`
	District *location.District `json:"district,omitempty"`
	Place    *location.Place    `json:"place,omitempty"`
}

type step struct {
	kind location.Kind
	load func(ctx context.Context, slug string, r *Result) error
}

// Matcher resolves slugs against the trie cache in fixed priority order:
// state, then district, then place. The first kind whose trie matches wins.
type Matcher struct {
	cache *Cache
	steps []step
}

// NewMatcher builds a Matcher over cache and lookup.
func NewMatcher(cache *Cache, lookup Lookup) *Matcher {
	return &Matcher{
		cache: cache,
		steps: []step{
			{location.KindState, func(ctx context.Context, slug string, r *Result) (err error) {
				r.State, err = lookup.StateBySlug(ctx, slug)
				return err
			}},
			{location.KindDistrict, func(ctx context.Context, slug string, r *Result) (err error) {
				r.District, err = lookup.DistrictBySlug(ctx, slug)
				return err
			}},
			{location.KindPlace, func(ctx context.Context, slug string, r *Result) (err error) {
				r.Place, err = lookup.PlaceBySlug(ctx, slug)
				return err
			}},
		},
	}
}

// Resolve finds the location kind query ends with. hint restricts the search
// to one kind; the empty hint searches all kinds. An empty query or an
// unknown hint yields OutcomeUnresolved. Errors are returned only for trie
// build or store failures.
func (m *Matcher) Resolve(ctx context.Context, query string, hint location.Kind) (Result, error) {
	if query == "" || (hint != "" && !hint.Valid()) {
		return m.unresolved(query), nil
	}

	for _, s := range m.steps {
		if hint != "" && s.kind != hint {
			continue
		}
		t, err := m.cache.Trie(ctx, s.kind)
		if err != nil {
			return Result{}, err
		}
		slug, ok := t.MatchSuffix(query)
		if !ok {
			continue
		}

		res := Result{Query: query, Kind: s.kind, Slug: slug}
		err = s.load(ctx, slug, &res)
		switch {
		case errors.Is(err, location.ErrNotFound):
			res.Outcome = OutcomeDrift
			res.State, res.District, res.Place = nil, nil, nil
			zap.L().Warn("resolve: slug indexed but missing from store",
				zap.String("kind", string(s.kind)),
				zap.String("slug", slug),
				zap.String("query", query),
			)
		case err != nil:
			return Result{}, err
		default:
			res.Outcome = OutcomeResolved
		}
		metrics.ResolveTotal.WithLabelValues(string(res.Outcome), string(s.kind)).Inc()
		return res, nil
	}
	return m.unresolved(query), nil
}

func (m *Matcher) unresolved(query string) Result {
	metrics.ResolveTotal.WithLabelValues(string(OutcomeUnresolved), "").Inc()
	return Result{Outcome: OutcomeUnresolved, Query: query}
}
