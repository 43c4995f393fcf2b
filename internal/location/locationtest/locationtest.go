// Package locationtest seeds SQLite-backed location stores for tests.
package locationtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/locality/internal/location"
)

// Fixture describes a small hierarchy to load. Coordinates and pincodes are
// keyed by place slug and inserted in slice order, so their IDs follow the
// order given here.
type Fixture struct {
	States      []location.State
	Districts   []DistrictRow
	Places      []PlaceRow
	Coordinates []CoordinateRow
	Pincodes    []PincodeRow
}

// DistrictRow names its state by slug.
type DistrictRow struct {
	Name, Slug, State string
}

// PlaceRow names its district and state by slug. State may be left empty to
// inherit the district's state.
type PlaceRow struct {
	Name, Slug, District, State string
}

// CoordinateRow names its place by slug.
type CoordinateRow struct {
	Place    string
	Lat, Lon float64
}

// PincodeRow names its place by slug.
type PincodeRow struct {
	Place, Pincode string
}

// Seeded maps slugs to the IDs assigned during loading.
type Seeded struct {
	States    map[string]int64
	Districts map[string]int64
	Places    map[string]int64
}

// NewStore returns a migrated, empty SQLite store in a temp dir.
func NewStore(t *testing.T) *location.SQLiteStore {
	t.Helper()
	st, err := location.NewSQLite(filepath.Join(t.TempDir(), "locality.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// Load inserts f into st.
func Load(t *testing.T, st location.Loader, f Fixture) Seeded {
	t.Helper()
	ctx := context.Background()
	out := Seeded{
		States:    map[string]int64{},
		Districts: map[string]int64{},
		Places:    map[string]int64{},
	}
	districtState := map[string]int64{}

	for _, s := range f.States {
		s := s
		require.NoError(t, st.InsertState(ctx, &s))
		out.States[s.Slug] = s.ID
	}
	for _, d := range f.Districts {
		row := location.District{Name: d.Name, Slug: d.Slug, StateID: out.States[d.State]}
		require.NoError(t, st.InsertDistrict(ctx, &row))
		out.Districts[d.Slug] = row.ID
		districtState[d.Slug] = row.StateID
	}
	for _, p := range f.Places {
		stateID := districtState[p.District]
		if p.State != "" {
			stateID = out.States[p.State]
		}
		row := location.Place{Name: p.Name, Slug: p.Slug, DistrictID: out.Districts[p.District], StateID: stateID}
		require.NoError(t, st.InsertPlace(ctx, &row))
		out.Places[p.Slug] = row.ID
	}

	coords := make([]location.Coordinate, 0, len(f.Coordinates))
	for _, c := range f.Coordinates {
		coords = append(coords, location.Coordinate{PlaceID: out.Places[c.Place], Latitude: c.Lat, Longitude: c.Lon})
	}
	_, err := st.InsertCoordinates(ctx, coords)
	require.NoError(t, err)

	pins := make([]location.Pincode, 0, len(f.Pincodes))
	for _, p := range f.Pincodes {
		pins = append(pins, location.Pincode{PlaceID: out.Places[p.Place], Pincode: p.Pincode})
	}
	_, err = st.InsertPincodes(ctx, pins)
	require.NoError(t, err)

	return out
}

// Maharashtra is a small fixture around Mumbai used across packages.
func Maharashtra() Fixture {
	return Fixture{
		States: []location.State{
			{Name: "Maharashtra", Slug: "maharashtra"},
			{Name: "Goa", Slug: "goa"},
		},
		Districts: []DistrictRow{
			{Name: "Mumbai", Slug: "mumbai-maharashtra", State: "maharashtra"},
			{Name: "Thane", Slug: "thane-maharashtra", State: "maharashtra"},
			{Name: "North Goa", Slug: "north-goa-goa", State: "goa"},
		},
		Places: []PlaceRow{
			{Name: "Mumbai", Slug: "mumbai", District: "mumbai-maharashtra"},
			{Name: "Andheri", Slug: "andheri", District: "mumbai-maharashtra"},
			{Name: "Thane", Slug: "thane", District: "thane-maharashtra"},
			{Name: "Navi Mumbai", Slug: "navi-mumbai", District: "thane-maharashtra"},
			{Name: "Panaji", Slug: "panaji", District: "north-goa-goa"},
		},
		Coordinates: []CoordinateRow{
			{Place: "mumbai", Lat: 19.07, Lon: 72.87},
			{Place: "andheri", Lat: 19.08, Lon: 72.90},
			{Place: "mumbai", Lat: 19.076, Lon: 72.877},
			{Place: "thane", Lat: 19.20, Lon: 72.97},
			{Place: "navi-mumbai", Lat: 19.03, Lon: 73.03},
			{Place: "panaji", Lat: 15.49, Lon: 73.82},
		},
		Pincodes: []PincodeRow{
			{Place: "andheri", Pincode: "400053"},
			{Place: "mumbai", Pincode: "400001"},
			{Place: "mumbai", Pincode: "400002"},
			{Place: "thane", Pincode: "400601"},
			{Place: "navi-mumbai", Pincode: "400703"},
		},
	}
}
