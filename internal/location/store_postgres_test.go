package location

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

// ---------------------------------------------------------------------------
// Slugs and lookups
// ---------------------------------------------------------------------------

func TestPostgres_ListSlugs(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT slug FROM locality\.districts ORDER BY id`).
		WillReturnRows(pgxmock.NewRows([]string{"slug"}).
			AddRow("mumbai-maharashtra").
			AddRow("thane-maharashtra"))

	slugs, err := st.ListSlugs(context.Background(), KindDistrict)
	require.NoError(t, err)
	assert.Equal(t, []string{"mumbai-maharashtra", "thane-maharashtra"}, slugs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListSlugs_InvalidKind(t *testing.T) {
	st, _ := newMockStore(t)

	_, err := st.ListSlugs(context.Background(), Kind("village"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestPostgres_ListSlugs_DBError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT slug FROM locality\.states`).
		WillReturnError(fmt.Errorf("connection refused"))

	_, err := st.ListSlugs(context.Background(), KindState)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list state slugs")
}

func TestPostgres_PlaceBySlug(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, slug, district_id, state_id FROM locality\.places WHERE slug = \$1`).
		WithArgs("andheri").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "district_id", "state_id"}).
			AddRow(int64(2), "Andheri", "andheri", int64(1), int64(1)))

	p, err := st.PlaceBySlug(context.Background(), "andheri")
	require.NoError(t, err)
	assert.Equal(t, &Place{ID: 2, Name: "Andheri", Slug: "andheri", DistrictID: 1, StateID: 1}, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_StateBySlug_NotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, slug FROM locality\.states WHERE slug = \$1`).
		WithArgs("atlantis").
		WillReturnError(pgx.ErrNoRows)

	_, err := st.StateBySlug(context.Background(), "atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_GetDistrict_DBError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM locality\.districts WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnError(fmt.Errorf("timeout"))

	_, err := st.GetDistrict(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get district")
}

// ---------------------------------------------------------------------------
// Spatial
// ---------------------------------------------------------------------------

func TestPostgres_PlacesInBox(t *testing.T) {
	st, mock := newMockStore(t)
	box := BoxAround(19.075, 72.88, 0.05)

	mock.ExpectQuery(`FROM locality\.coordinates c\s+JOIN locality\.places p`).
		WithArgs(box.MinLat, box.MaxLat, box.MinLon, box.MaxLon).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "place_id", "latitude", "longitude",
			"id", "name", "slug", "district_id", "state_id",
		}).
			AddRow(int64(1), int64(10), 19.07, 72.87, int64(10), "Mumbai", "mumbai", int64(1), int64(1)).
			AddRow(int64(2), int64(11), 19.08, 72.90, int64(11), "Andheri", "andheri", int64(1), int64(1)))

	hits, err := st.PlacesInBox(context.Background(), box)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "andheri", hits[1].Place.Slug)
	assert.InDelta(t, 72.90, hits[1].Coordinate.Longitude, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_NearestCoordinate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`ORDER BY \(latitude - \$1\)`).
		WithArgs(19.075, 72.88).
		WillReturnRows(pgxmock.NewRows([]string{"id", "place_id", "latitude", "longitude"}).
			AddRow(int64(1), int64(10), 19.07, 72.87))

	c, err := st.NearestCoordinate(context.Background(), 19.075, 72.88)
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.PlaceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_NearestCoordinate_Empty(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM locality\.coordinates`).
		WithArgs(0.0, 0.0).
		WillReturnError(pgx.ErrNoRows)

	_, err := st.NearestCoordinate(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_RegionCoordinates(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE p\.district_id = \$1\s+ORDER BY c\.id`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "place_id", "latitude", "longitude"}).
			AddRow(int64(4), int64(1), 1.0, 2.0).
			AddRow(int64(9), int64(2), 3.0, 4.0))

	coords, err := st.RegionCoordinates(context.Background(), KindDistrict, 3)
	require.NoError(t, err)
	assert.Len(t, coords, 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = st.RegionCoordinates(context.Background(), KindPlace, 3)
	assert.Error(t, err)
}

func TestPostgres_DistrictPincodesByPlaceName(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`lower\(p\.name\) = lower\(\$2\)`).
		WithArgs(int64(1), "Mumbai").
		WillReturnRows(pgxmock.NewRows([]string{"id", "place_id", "pincode"}).
			AddRow(int64(5), int64(10), "400001"))

	pins, err := st.DistrictPincodesByPlaceName(context.Background(), 1, "Mumbai")
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, "400001", pins[0].Pincode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

func TestPostgres_InsertDistrict(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO locality\.districts`).
		WithArgs("Thane", "thane-maharashtra", int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	d := &District{Name: "Thane", Slug: "thane-maharashtra", StateID: 1}
	require.NoError(t, st.InsertDistrict(context.Background(), d))
	assert.Equal(t, int64(42), d.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertCoordinates_UsesCopy(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"locality", "coordinates"}, []string{"place_id", "latitude", "longitude"}).
		WillReturnResult(2)

	n, err := st.InsertCoordinates(context.Background(), []Coordinate{
		{PlaceID: 1, Latitude: 19.07, Longitude: 72.87},
		{PlaceID: 1, Latitude: 19.08, Longitude: 72.88},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SlugExists(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM locality\.places WHERE slug = \$1\)`).
		WithArgs("thane").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := st.SlugExists(context.Background(), KindPlace, "thane")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgres_CheckConsistency(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE p\.state_id <> d\.state_id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "state_id", "id", "state_id"}).
			AddRow(int64(8), "vasco", int64(1), int64(3), int64(2)))

	bad, err := st.CheckConsistency(context.Background())
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.Equal(t, Inconsistency{PlaceID: 8, PlaceSlug: "vasco", PlaceStateID: 1, DistrictID: 3, DistrictStateID: 2}, bad[0])
}

// ---------------------------------------------------------------------------
// Migrate
// ---------------------------------------------------------------------------

func TestPostgres_Migrate_AppliesPending(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`SELECT pg_advisory_lock`).WithArgs(migrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS locality`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT filename FROM locality\.schema_migrations`).
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_hierarchy.sql"))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS locality\.coordinates`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`INSERT INTO locality\.schema_migrations`).
		WithArgs("002_coordinates_pincodes.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`SELECT pg_advisory_unlock`).WithArgs(migrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate_LockFails(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`SELECT pg_advisory_lock`).WithArgs(migrationLockID).
		WillReturnError(fmt.Errorf("permission denied"))

	err := st.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire migration lock")
}
