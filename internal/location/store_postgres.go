package location

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/locality/internal/db"
)

var pgTables = map[Kind]string{
	KindState:    "locality.states",
	KindDistrict: "locality.districts",
	KindPlace:    "locality.places",
}

// PostgresStore implements Store and Loader on Postgres.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return migratePostgres(ctx, s.pool)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ListSlugs implements Store.
func (s *PostgresStore) ListSlugs(ctx context.Context, kind Kind) ([]string, error) {
	table, ok := pgTables[kind]
	if !ok {
		return nil, eris.Errorf("location: invalid kind %q", kind)
	}
	rows, err := s.pool.Query(ctx, "SELECT slug FROM "+table+" ORDER BY id")
	if err != nil {
		return nil, eris.Wrapf(err, "location: list %s slugs", kind)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, eris.Wrapf(err, "location: scan %s slug", kind)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "location: iterate %s slugs", kind)
	}
	return slugs, nil
}

// StateBySlug implements Store.
func (s *PostgresStore) StateBySlug(ctx context.Context, slug string) (*State, error) {
	return s.scanState(s.pool.QueryRow(ctx,
		"SELECT id, name, slug FROM locality.states WHERE slug = $1", slug), "state by slug")
}

// GetState implements Store.
func (s *PostgresStore) GetState(ctx context.Context, id int64) (*State, error) {
	return s.scanState(s.pool.QueryRow(ctx,
		"SELECT id, name, slug FROM locality.states WHERE id = $1", id), "get state")
}

// FindStateByName implements Loader.
func (s *PostgresStore) FindStateByName(ctx context.Context, name string) (*State, error) {
	return s.scanState(s.pool.QueryRow(ctx,
		"SELECT id, name, slug FROM locality.states WHERE name = $1 ORDER BY id LIMIT 1", name), "state by name")
}

func (s *PostgresStore) scanState(row pgx.Row, op string) (*State, error) {
	var st State
	if err := row.Scan(&st.ID, &st.Name, &st.Slug); err != nil {
		return nil, pgNotFound(err, op)
	}
	return &st, nil
}

// DistrictBySlug implements Store.
func (s *PostgresStore) DistrictBySlug(ctx context.Context, slug string) (*District, error) {
	return s.scanDistrict(s.pool.QueryRow(ctx,
		"SELECT id, name, slug, state_id FROM locality.districts WHERE slug = $1", slug), "district by slug")
}

// GetDistrict implements Store.
func (s *PostgresStore) GetDistrict(ctx context.Context, id int64) (*District, error) {
	return s.scanDistrict(s.pool.QueryRow(ctx,
		"SELECT id, name, slug, state_id FROM locality.districts WHERE id = $1", id), "get district")
}

// FindDistrictByName implements Loader.
func (s *PostgresStore) FindDistrictByName(ctx context.Context, stateID int64, name string) (*District, error) {
	return s.scanDistrict(s.pool.QueryRow(ctx,
		"SELECT id, name, slug, state_id FROM locality.districts WHERE state_id = $1 AND name = $2 ORDER BY id LIMIT 1",
		stateID, name), "district by name")
}

func (s *PostgresStore) scanDistrict(row pgx.Row, op string) (*District, error) {
	var d District
	if err := row.Scan(&d.ID, &d.Name, &d.Slug, &d.StateID); err != nil {
		return nil, pgNotFound(err, op)
	}
	return &d, nil
}

// PlaceBySlug implements Store.
func (s *PostgresStore) PlaceBySlug(ctx context.Context, slug string) (*Place, error) {
	return s.scanPlace(s.pool.QueryRow(ctx,
		"SELECT id, name, slug, district_id, state_id FROM locality.places WHERE slug = $1", slug), "place by slug")
}

// GetPlace implements Store.
func (s *PostgresStore) GetPlace(ctx context.Context, id int64) (*Place, error) {
	return s.scanPlace(s.pool.QueryRow(ctx,
		"SELECT id, name, slug, district_id, state_id FROM locality.places WHERE id = $1", id), "get place")
}

// FindPlaceByName implements Loader.
func (s *PostgresStore) FindPlaceByName(ctx context.Context, districtID int64, name string) (*Place, error) {
	return s.scanPlace(s.pool.QueryRow(ctx,
		"SELECT id, name, slug, district_id, state_id FROM locality.places WHERE district_id = $1 AND name = $2 ORDER BY id LIMIT 1",
		districtID, name), "place by name")
}

func (s *PostgresStore) scanPlace(row pgx.Row, op string) (*Place, error) {
	var p Place
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.DistrictID, &p.StateID); err != nil {
		return nil, pgNotFound(err, op)
	}
	return &p, nil
}

// PlacesInBox implements Store.
func (s *PostgresStore) PlacesInBox(ctx context.Context, box BBox) ([]Located, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.place_id, c.latitude, c.longitude,
		       p.id, p.name, p.slug, p.district_id, p.state_id
		FROM locality.coordinates c
		JOIN locality.places p ON p.id = c.place_id
		WHERE c.latitude BETWEEN $1 AND $2
		  AND c.longitude BETWEEN $3 AND $4
		ORDER BY c.id`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, eris.Wrap(err, "location: places in box")
	}
	defer rows.Close()

	var out []Located
	for rows.Next() {
		var l Located
		if err := rows.Scan(
			&l.Coordinate.ID, &l.Coordinate.PlaceID, &l.Coordinate.Latitude, &l.Coordinate.Longitude,
			&l.Place.ID, &l.Place.Name, &l.Place.Slug, &l.Place.DistrictID, &l.Place.StateID,
		); err != nil {
			return nil, eris.Wrap(err, "location: scan box row")
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "location: iterate box rows")
	}
	return out, nil
}

// NearestCoordinate implements Store.
func (s *PostgresStore) NearestCoordinate(ctx context.Context, lat, lon float64) (*Coordinate, error) {
	var c Coordinate
	err := s.pool.QueryRow(ctx, `
		SELECT id, place_id, latitude, longitude
		FROM locality.coordinates
		ORDER BY (latitude - $1) * (latitude - $1) + (longitude - $2) * (longitude - $2), id
		LIMIT 1`,
		lat, lon,
	).Scan(&c.ID, &c.PlaceID, &c.Latitude, &c.Longitude)
	if err != nil {
		return nil, pgNotFound(err, "nearest coordinate")
	}
	return &c, nil
}

// RegionCoordinates implements Store.
func (s *PostgresStore) RegionCoordinates(ctx context.Context, kind Kind, id int64) ([]Coordinate, error) {
	col, err := regionColumn(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.place_id, c.latitude, c.longitude
		FROM locality.coordinates c
		JOIN locality.places p ON p.id = c.place_id
		WHERE p.`+col+` = $1
		ORDER BY c.id`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "location: %s coordinates", kind)
	}
	defer rows.Close()

	var out []Coordinate
	for rows.Next() {
		var c Coordinate
		if err := rows.Scan(&c.ID, &c.PlaceID, &c.Latitude, &c.Longitude); err != nil {
			return nil, eris.Wrap(err, "location: scan coordinate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "location: iterate coordinates")
}

// PincodesByPlace implements Store.
func (s *PostgresStore) PincodesByPlace(ctx context.Context, placeID int64) ([]Pincode, error) {
	return s.queryPincodes(ctx,
		"SELECT id, place_id, pincode FROM locality.pincodes WHERE place_id = $1 ORDER BY id", placeID)
}

// DistrictPincodesByPlaceName implements Store.
func (s *PostgresStore) DistrictPincodesByPlaceName(ctx context.Context, districtID int64, name string) ([]Pincode, error) {
	return s.queryPincodes(ctx, `
		SELECT pc.id, pc.place_id, pc.pincode
		FROM locality.pincodes pc
		JOIN locality.places p ON p.id = pc.place_id
		WHERE p.district_id = $1 AND lower(p.name) = lower($2)
		ORDER BY pc.id`, districtID, name)
}

func (s *PostgresStore) queryPincodes(ctx context.Context, sql string, args ...any) ([]Pincode, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "location: query pincodes")
	}
	defer rows.Close()

	var out []Pincode
	for rows.Next() {
		var p Pincode
		if err := rows.Scan(&p.ID, &p.PlaceID, &p.Pincode); err != nil {
			return nil, eris.Wrap(err, "location: scan pincode")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "location: iterate pincodes")
}

// CheckConsistency implements Store.
func (s *PostgresStore) CheckConsistency(ctx context.Context) ([]Inconsistency, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.slug, p.state_id, d.id, d.state_id
		FROM locality.places p
		JOIN locality.districts d ON d.id = p.district_id
		WHERE p.state_id <> d.state_id
		ORDER BY p.id`)
	if err != nil {
		return nil, eris.Wrap(err, "location: check consistency")
	}
	defer rows.Close()

	var out []Inconsistency
	for rows.Next() {
		var in Inconsistency
		if err := rows.Scan(&in.PlaceID, &in.PlaceSlug, &in.PlaceStateID, &in.DistrictID, &in.DistrictStateID); err != nil {
			return nil, eris.Wrap(err, "location: scan inconsistency")
		}
		out = append(out, in)
	}
	return out, eris.Wrap(rows.Err(), "location: iterate inconsistencies")
}

// SlugExists implements Loader.
func (s *PostgresStore) SlugExists(ctx context.Context, kind Kind, slug string) (bool, error) {
	table, ok := pgTables[kind]
	if !ok {
		return false, eris.Errorf("location: invalid kind %q", kind)
	}
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE slug = $1)", slug).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "location: %s slug exists", kind)
	}
	return exists, nil
}

// InsertState implements Loader.
func (s *PostgresStore) InsertState(ctx context.Context, st *State) error {
	err := s.pool.QueryRow(ctx,
		"INSERT INTO locality.states (name, slug) VALUES ($1, $2) RETURNING id",
		st.Name, st.Slug,
	).Scan(&st.ID)
	return eris.Wrap(err, "location: insert state")
}

// InsertDistrict implements Loader.
func (s *PostgresStore) InsertDistrict(ctx context.Context, d *District) error {
	err := s.pool.QueryRow(ctx,
		"INSERT INTO locality.districts (name, slug, state_id) VALUES ($1, $2, $3) RETURNING id",
		d.Name, d.Slug, d.StateID,
	).Scan(&d.ID)
	return eris.Wrap(err, "location: insert district")
}

// InsertPlace implements Loader.
func (s *PostgresStore) InsertPlace(ctx context.Context, p *Place) error {
	err := s.pool.QueryRow(ctx,
		"INSERT INTO locality.places (name, slug, district_id, state_id) VALUES ($1, $2, $3, $4) RETURNING id",
		p.Name, p.Slug, p.DistrictID, p.StateID,
	).Scan(&p.ID)
	return eris.Wrap(err, "location: insert place")
}

// InsertCoordinates implements Loader using COPY.
func (s *PostgresStore) InsertCoordinates(ctx context.Context, coords []Coordinate) (int64, error) {
	rows := make([][]any, len(coords))
	for i, c := range coords {
		rows[i] = []any{c.PlaceID, c.Latitude, c.Longitude}
	}
	return db.CopyInto(ctx, s.pool, "locality.coordinates", []string{"place_id", "latitude", "longitude"}, rows)
}

// InsertPincodes implements Loader using COPY.
func (s *PostgresStore) InsertPincodes(ctx context.Context, pins []Pincode) (int64, error) {
	rows := make([][]any, len(pins))
	for i, p := range pins {
		rows[i] = []any{p.PlaceID, p.Pincode}
	}
	return db.CopyInto(ctx, s.pool, "locality.pincodes", []string{"place_id", "pincode"}, rows)
}

func regionColumn(kind Kind) (string, error) {
	switch kind {
	case KindState:
		return "state_id", nil
	case KindDistrict:
		return "district_id", nil
	}
	return "", eris.Errorf("location: %q is not a region kind", kind)
}

func pgNotFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return eris.Wrapf(err, "location: %s", op)
}
