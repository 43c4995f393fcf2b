package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/locality/internal/importer"
	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/location/locationtest"
)

const sample = `state,district,place,latitude,longitude,pincode
Maharashtra,Mumbai,Mumbai,19.07,72.87,400001
Maharashtra,Mumbai,Mumbai,19.07,72.87,400001
Maharashtra,Mumbai,Mumbai,19.076,72.877,400002
Maharashtra,Mumbai,Andheri,19.08,72.90,400053
Maharashtra,Thane,Thane,19.20,72.97,400601
Goa,North Goa,Panaji,15.49,73.82,
`

func TestImport(t *testing.T) {
	ctx := context.Background()
	st := locationtest.NewStore(t)

	stats, err := importer.New(st).Import(ctx, strings.NewReader(sample))
	require.NoError(t, err)

	assert.NotEmpty(t, stats.BatchID)
	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 2, stats.States)
	assert.Equal(t, 3, stats.Districts)
	assert.Equal(t, 4, stats.Places)
	assert.Equal(t, int64(5), stats.Coordinates)
	assert.Equal(t, int64(4), stats.Pincodes)
	assert.Zero(t, stats.Skipped)

	d, err := st.DistrictBySlug(ctx, "north-goa-goa")
	require.NoError(t, err)
	assert.Equal(t, "North Goa", d.Name)

	p, err := st.PlaceBySlug(ctx, "andheri")
	require.NoError(t, err)
	mumbai, err := st.DistrictBySlug(ctx, "mumbai-maharashtra")
	require.NoError(t, err)
	assert.Equal(t, mumbai.ID, p.DistrictID)
	assert.Equal(t, mumbai.StateID, p.StateID)

	m, err := st.PlaceBySlug(ctx, "mumbai")
	require.NoError(t, err)
	pins, err := st.PincodesByPlace(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.Equal(t, "400001", pins[0].Pincode)

	bad, err := st.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.Empty(t, bad)
}

func TestImport_SlugCollisions(t *testing.T) {
	ctx := context.Background()
	st := locationtest.NewStore(t)

	// Two places named Aurangabad in different states, and a district whose
	// name+state slug would clash with nothing.
	csv := `state,district,place
Maharashtra,Aurangabad,Aurangabad
Bihar,Aurangabad,Aurangabad
`
	stats, err := importer.New(st).Import(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Places)
	assert.Zero(t, stats.Coordinates)

	slugs, err := st.ListSlugs(ctx, location.KindPlace)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aurangabad", "aurangabad-1"}, slugs)

	districts, err := st.ListSlugs(ctx, location.KindDistrict)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aurangabad-maharashtra", "aurangabad-bihar"}, districts)
}

func TestImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := locationtest.NewStore(t)
	im := importer.New(st)

	_, err := im.Import(ctx, strings.NewReader(sample))
	require.NoError(t, err)

	stats, err := im.Import(ctx, strings.NewReader("state,district,place\nMaharashtra,Thane,Thane\n"))
	require.NoError(t, err)
	assert.Zero(t, stats.States)
	assert.Zero(t, stats.Districts)
	assert.Zero(t, stats.Places)

	slugs, err := st.ListSlugs(ctx, location.KindPlace)
	require.NoError(t, err)
	assert.Len(t, slugs, 4)
}

func TestImport_ColumnOrderAndSkips(t *testing.T) {
	ctx := context.Background()
	st := locationtest.NewStore(t)

	csv := `Pincode,Place,District,State,Longitude,Latitude
411001,Pune,Pune,Maharashtra,73.85,18.52
,,Pune,Maharashtra,,
411002,Pune,Pune,Maharashtra,north,18.52
`
	stats, err := importer.New(st).Import(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, int64(1), stats.Coordinates)
	assert.Equal(t, int64(2), stats.Pincodes)

	p, err := st.PlaceBySlug(ctx, "pune")
	require.NoError(t, err)
	coords, err := st.RegionCoordinates(ctx, location.KindDistrict, p.DistrictID)
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.InDelta(t, 18.52, coords[0].Latitude, 1e-9)
	assert.InDelta(t, 73.85, coords[0].Longitude, 1e-9)
}

func TestImport_Errors(t *testing.T) {
	ctx := context.Background()
	st := locationtest.NewStore(t)
	im := importer.New(st)

	_, err := im.Import(ctx, strings.NewReader(""))
	assert.Error(t, err)

	_, err = im.Import(ctx, strings.NewReader("state,place\nGoa,Panaji\n"))
	assert.ErrorContains(t, err, "district")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = im.Import(cancelled, strings.NewReader(sample))
	assert.Error(t, err)
}

// failingPlaces rejects inserts of one place name.
type failingPlaces struct {
	location.Loader
	name string
}

func (f failingPlaces) InsertPlace(ctx context.Context, p *location.Place) error {
	if p.Name == f.name {
		return errors.New("insert rejected")
	}
	return f.Loader.InsertPlace(ctx, p)
}

func TestImport_FailureKeepsAcceptedRows(t *testing.T) {
	ctx := context.Background()
	st := locationtest.NewStore(t)

	csv := `state,district,place,latitude,longitude,pincode
Maharashtra,Mumbai,Mumbai,19.07,72.87,400001
Maharashtra,Mumbai,Broken,19.10,72.90,400099
`
	stats, err := importer.New(failingPlaces{Loader: st, name: "Broken"}).Import(ctx, strings.NewReader(csv))
	require.ErrorContains(t, err, "line 3")
	assert.Equal(t, int64(1), stats.Coordinates)
	assert.Equal(t, int64(1), stats.Pincodes)

	p, err := st.PlaceBySlug(ctx, "mumbai")
	require.NoError(t, err)
	coords, err := st.RegionCoordinates(ctx, location.KindDistrict, p.DistrictID)
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.Equal(t, p.ID, coords[0].PlaceID)
	pins, err := st.PincodesByPlace(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, "400001", pins[0].Pincode)

	_, err = st.PlaceBySlug(ctx, "broken")
	assert.ErrorIs(t, err, location.ErrNotFound)
}

func TestImport_IgnoresUnknownColumns(t *testing.T) {
	ctx := context.Background()
	st := locationtest.NewStore(t)

	csv := `state,district,place,population
Goa,North Goa,Panaji,114405
`
	stats, err := importer.New(st).Import(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Places)
	assert.Zero(t, stats.Coordinates)
	assert.Zero(t, stats.Pincodes)
}
