package resolve

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/location/locationtest"
)

func newMatcher(t *testing.T, f locationtest.Fixture) (*Matcher, *Cache) {
	t.Helper()
	st := locationtest.NewStore(t)
	locationtest.Load(t, st, f)
	c := NewCache(st)
	return NewMatcher(c, st), c
}

func TestResolve_Place(t *testing.T) {
	m, _ := newMatcher(t, locationtest.Maharashtra())

	res, err := m.Resolve(context.Background(), "plumbers-in-andheri", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, location.KindPlace, res.Kind)
	assert.Equal(t, "andheri", res.Slug)
	require.NotNil(t, res.Place)
	assert.Equal(t, "Andheri", res.Place.Name)
	assert.Nil(t, res.State)
}

func TestResolve_LongestPlaceSuffix(t *testing.T) {
	m, _ := newMatcher(t, locationtest.Maharashtra())

	res, err := m.Resolve(context.Background(), "abc-navi-mumbai", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "navi-mumbai", res.Slug)
}

func TestResolve_District(t *testing.T) {
	m, _ := newMatcher(t, locationtest.Maharashtra())
	ctx := context.Background()

	res, err := m.Resolve(ctx, "courses-thane-maharashtra", location.KindDistrict)
	require.NoError(t, err)
	assert.Equal(t, location.KindDistrict, res.Kind)
	require.NotNil(t, res.District)
	assert.Equal(t, "Thane", res.District.Name)

	// Unrestricted, the state slug ending the district slug wins.
	res, err = m.Resolve(ctx, "courses-thane-maharashtra", "")
	require.NoError(t, err)
	assert.Equal(t, location.KindState, res.Kind)
	assert.Equal(t, "maharashtra", res.Slug)
}

func TestResolve_StateBeatsPlace(t *testing.T) {
	f := locationtest.Maharashtra()
	f.Places = append(f.Places, locationtest.PlaceRow{Name: "North Goa", Slug: "north-goa", District: "north-goa-goa"})
	m, _ := newMatcher(t, f)
	ctx := context.Background()

	res, err := m.Resolve(ctx, "hotels-in-north-goa", "")
	require.NoError(t, err)
	assert.Equal(t, location.KindState, res.Kind)
	assert.Equal(t, "goa", res.Slug)
	require.NotNil(t, res.State)

	res, err = m.Resolve(ctx, "hotels-in-north-goa", location.KindPlace)
	require.NoError(t, err)
	assert.Equal(t, location.KindPlace, res.Kind)
	assert.Equal(t, "north-goa", res.Slug)
}

func TestResolve_HintRestricts(t *testing.T) {
	m, _ := newMatcher(t, locationtest.Maharashtra())

	res, err := m.Resolve(context.Background(), "plumbers-in-andheri", location.KindDistrict)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, res.Outcome)
}

func TestResolve_Unresolved(t *testing.T) {
	m, c := newMatcher(t, locationtest.Maharashtra())
	ctx := context.Background()

	for _, q := range []string{"", "andheri-plumbers", "pune"} {
		res, err := m.Resolve(ctx, q, "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnresolved, res.Outcome, q)
		assert.Nil(t, res.Place)
	}

	res, err := m.Resolve(ctx, "andheri", location.Kind("village"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, res.Outcome)

	// Each kind was built exactly once across all of the lookups above.
	assert.Equal(t, int64(3), c.Builds())
}

func TestResolve_Drift(t *testing.T) {
	st := locationtest.NewStore(t)
	locationtest.Load(t, st, locationtest.Maharashtra())

	src := &fakeSource{slugs: map[location.Kind][]string{
		location.KindPlace: {"ghost-town"},
	}}
	m := NewMatcher(NewCache(src), st)

	res, err := m.Resolve(context.Background(), "cafes-in-ghost-town", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDrift, res.Outcome)
	assert.Equal(t, location.KindPlace, res.Kind)
	assert.Equal(t, "ghost-town", res.Slug)
	assert.Nil(t, res.Place)
}

type failingLookup struct{}

func (failingLookup) StateBySlug(context.Context, string) (*location.State, error) {
	return nil, fmt.Errorf("connection reset")
}

func (failingLookup) DistrictBySlug(context.Context, string) (*location.District, error) {
	return nil, fmt.Errorf("connection reset")
}

func (failingLookup) PlaceBySlug(context.Context, string) (*location.Place, error) {
	return nil, fmt.Errorf("connection reset")
}

func TestResolve_StoreError(t *testing.T) {
	src := &fakeSource{slugs: map[location.Kind][]string{location.KindState: {"goa"}}}
	m := NewMatcher(NewCache(src), failingLookup{})

	_, err := m.Resolve(context.Background(), "goa", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestResolve_TrieBuildError(t *testing.T) {
	src := &fakeSource{}
	src.fail.Store(true)
	m := NewMatcher(NewCache(src), failingLookup{})

	_, err := m.Resolve(context.Background(), "goa", "")
	require.Error(t, err)
}
