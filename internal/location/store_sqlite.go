package location

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

var sqliteTables = map[Kind]string{
	KindState:    "states",
	KindDistrict: "districts",
	KindPlace:    "places",
}

// SQLiteStore implements Store and Loader using modernc.org/sqlite. It backs
// local development and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS states (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS districts (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL,
	slug     TEXT NOT NULL UNIQUE,
	state_id INTEGER NOT NULL REFERENCES states(id)
);

CREATE TABLE IF NOT EXISTS places (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	district_id INTEGER NOT NULL REFERENCES districts(id),
	state_id    INTEGER NOT NULL REFERENCES states(id)
);

CREATE TABLE IF NOT EXISTS coordinates (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	place_id  INTEGER NOT NULL REFERENCES places(id),
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS pincodes (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	place_id INTEGER NOT NULL REFERENCES places(id),
	pincode  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_districts_state_id ON districts(state_id);
CREATE INDEX IF NOT EXISTS idx_places_district_id ON places(district_id);
CREATE INDEX IF NOT EXISTS idx_places_state_id ON places(state_id);
CREATE INDEX IF NOT EXISTS idx_coordinates_lat_lon ON coordinates(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_coordinates_place_id ON coordinates(place_id);
CREATE INDEX IF NOT EXISTS idx_pincodes_place_id ON pincodes(place_id);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListSlugs(ctx context.Context, kind Kind) ([]string, error) {
	table, ok := sqliteTables[kind]
	if !ok {
		return nil, eris.Errorf("sqlite: invalid kind %q", kind)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT slug FROM "+table+" ORDER BY id")
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s slugs", kind)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s slug", kind)
		}
		slugs = append(slugs, slug)
	}
	return slugs, eris.Wrapf(rows.Err(), "sqlite: iterate %s slugs", kind)
}

func (s *SQLiteStore) StateBySlug(ctx context.Context, slug string) (*State, error) {
	return scanSQLiteState(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug FROM states WHERE slug = ?", slug), "state by slug")
}

func (s *SQLiteStore) GetState(ctx context.Context, id int64) (*State, error) {
	return scanSQLiteState(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug FROM states WHERE id = ?", id), "get state")
}

func (s *SQLiteStore) FindStateByName(ctx context.Context, name string) (*State, error) {
	return scanSQLiteState(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug FROM states WHERE name = ? ORDER BY id LIMIT 1", name), "state by name")
}

func scanSQLiteState(row *sql.Row, op string) (*State, error) {
	var st State
	if err := row.Scan(&st.ID, &st.Name, &st.Slug); err != nil {
		return nil, sqliteNotFound(err, op)
	}
	return &st, nil
}

func (s *SQLiteStore) DistrictBySlug(ctx context.Context, slug string) (*District, error) {
	return scanSQLiteDistrict(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, state_id FROM districts WHERE slug = ?", slug), "district by slug")
}

func (s *SQLiteStore) GetDistrict(ctx context.Context, id int64) (*District, error) {
	return scanSQLiteDistrict(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, state_id FROM districts WHERE id = ?", id), "get district")
}

func (s *SQLiteStore) FindDistrictByName(ctx context.Context, stateID int64, name string) (*District, error) {
	return scanSQLiteDistrict(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, state_id FROM districts WHERE state_id = ? AND name = ? ORDER BY id LIMIT 1",
		stateID, name), "district by name")
}

func scanSQLiteDistrict(row *sql.Row, op string) (*District, error) {
	var d District
	if err := row.Scan(&d.ID, &d.Name, &d.Slug, &d.StateID); err != nil {
		return nil, sqliteNotFound(err, op)
	}
	return &d, nil
}

func (s *SQLiteStore) PlaceBySlug(ctx context.Context, slug string) (*Place, error) {
	return scanSQLitePlace(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, district_id, state_id FROM places WHERE slug = ?", slug), "place by slug")
}

func (s *SQLiteStore) GetPlace(ctx context.Context, id int64) (*Place, error) {
	return scanSQLitePlace(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, district_id, state_id FROM places WHERE id = ?", id), "get place")
}

func (s *SQLiteStore) FindPlaceByName(ctx context.Context, districtID int64, name string) (*Place, error) {
	return scanSQLitePlace(s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, district_id, state_id FROM places WHERE district_id = ? AND name = ? ORDER BY id LIMIT 1",
		districtID, name), "place by name")
}

func scanSQLitePlace(row *sql.Row, op string) (*Place, error) {
	var p Place
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.DistrictID, &p.StateID); err != nil {
		return nil, sqliteNotFound(err, op)
	}
	return &p, nil
}

func (s *SQLiteStore) PlacesInBox(ctx context.Context, box BBox) ([]Located, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.place_id, c.latitude, c.longitude,
		       p.id, p.name, p.slug, p.district_id, p.state_id
		FROM coordinates c
		JOIN places p ON p.id = c.place_id
		WHERE c.latitude BETWEEN ? AND ?
		  AND c.longitude BETWEEN ? AND ?
		ORDER BY c.id`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: places in box")
	}
	defer rows.Close()

	var out []Located
	for rows.Next() {
		var l Located
		if err := rows.Scan(
			&l.Coordinate.ID, &l.Coordinate.PlaceID, &l.Coordinate.Latitude, &l.Coordinate.Longitude,
			&l.Place.ID, &l.Place.Name, &l.Place.Slug, &l.Place.DistrictID, &l.Place.StateID,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan box row")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate box rows")
}

func (s *SQLiteStore) NearestCoordinate(ctx context.Context, lat, lon float64) (*Coordinate, error) {
	var c Coordinate
	err := s.db.QueryRowContext(ctx, `
		SELECT id, place_id, latitude, longitude
		FROM coordinates
		ORDER BY (latitude - ?1) * (latitude - ?1) + (longitude - ?2) * (longitude - ?2), id
		LIMIT 1`,
		lat, lon,
	).Scan(&c.ID, &c.PlaceID, &c.Latitude, &c.Longitude)
	if err != nil {
		return nil, sqliteNotFound(err, "nearest coordinate")
	}
	return &c, nil
}

func (s *SQLiteStore) RegionCoordinates(ctx context.Context, kind Kind, id int64) ([]Coordinate, error) {
	col, err := regionColumn(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.place_id, c.latitude, c.longitude
		FROM coordinates c
		JOIN places p ON p.id = c.place_id
		WHERE p.`+col+` = ?
		ORDER BY c.id`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s coordinates", kind)
	}
	defer rows.Close()

	var out []Coordinate
	for rows.Next() {
		var c Coordinate
		if err := rows.Scan(&c.ID, &c.PlaceID, &c.Latitude, &c.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan coordinate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate coordinates")
}

func (s *SQLiteStore) PincodesByPlace(ctx context.Context, placeID int64) ([]Pincode, error) {
	return s.queryPincodes(ctx,
		"SELECT id, place_id, pincode FROM pincodes WHERE place_id = ? ORDER BY id", placeID)
}

func (s *SQLiteStore) DistrictPincodesByPlaceName(ctx context.Context, districtID int64, name string) ([]Pincode, error) {
	return s.queryPincodes(ctx, `
		SELECT pc.id, pc.place_id, pc.pincode
		FROM pincodes pc
		JOIN places p ON p.id = pc.place_id
		WHERE p.district_id = ? AND lower(p.name) = lower(?)
		ORDER BY pc.id`, districtID, name)
}

func (s *SQLiteStore) queryPincodes(ctx context.Context, query string, args ...any) ([]Pincode, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query pincodes")
	}
	defer rows.Close()

	var out []Pincode
	for rows.Next() {
		var p Pincode
		if err := rows.Scan(&p.ID, &p.PlaceID, &p.Pincode); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pincode")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate pincodes")
}

func (s *SQLiteStore) CheckConsistency(ctx context.Context) ([]Inconsistency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.slug, p.state_id, d.id, d.state_id
		FROM places p
		JOIN districts d ON d.id = p.district_id
		WHERE p.state_id <> d.state_id
		ORDER BY p.id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: check consistency")
	}
	defer rows.Close()

	var out []Inconsistency
	for rows.Next() {
		var in Inconsistency
		if err := rows.Scan(&in.PlaceID, &in.PlaceSlug, &in.PlaceStateID, &in.DistrictID, &in.DistrictStateID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan inconsistency")
		}
		out = append(out, in)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate inconsistencies")
}

func (s *SQLiteStore) SlugExists(ctx context.Context, kind Kind, slug string) (bool, error) {
	table, ok := sqliteTables[kind]
	if !ok {
		return false, eris.Errorf("sqlite: invalid kind %q", kind)
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE slug = ?)", slug).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: %s slug exists", kind)
	}
	return exists, nil
}

func (s *SQLiteStore) InsertState(ctx context.Context, st *State) error {
	res, err := s.db.ExecContext(ctx, "INSERT INTO states (name, slug) VALUES (?, ?)", st.Name, st.Slug)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert state")
	}
	st.ID, err = res.LastInsertId()
	return eris.Wrap(err, "sqlite: state id")
}

func (s *SQLiteStore) InsertDistrict(ctx context.Context, d *District) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO districts (name, slug, state_id) VALUES (?, ?, ?)", d.Name, d.Slug, d.StateID)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert district")
	}
	d.ID, err = res.LastInsertId()
	return eris.Wrap(err, "sqlite: district id")
}

func (s *SQLiteStore) InsertPlace(ctx context.Context, p *Place) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO places (name, slug, district_id, state_id) VALUES (?, ?, ?, ?)",
		p.Name, p.Slug, p.DistrictID, p.StateID)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert place")
	}
	p.ID, err = res.LastInsertId()
	return eris.Wrap(err, "sqlite: place id")
}

// InsertCoordinates appends coordinates in one transaction and sets their IDs.
func (s *SQLiteStore) InsertCoordinates(ctx context.Context, coords []Coordinate) (int64, error) {
	if len(coords) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin coordinates tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO coordinates (place_id, latitude, longitude) VALUES (?, ?, ?)")
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare coordinate insert")
	}
	defer stmt.Close()

	for i := range coords {
		res, err := stmt.ExecContext(ctx, coords[i].PlaceID, coords[i].Latitude, coords[i].Longitude)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert coordinate for place %d", coords[i].PlaceID)
		}
		if coords[i].ID, err = res.LastInsertId(); err != nil {
			return 0, eris.Wrap(err, "sqlite: coordinate id")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit coordinates")
	}
	return int64(len(coords)), nil
}

// InsertPincodes appends pincodes in one transaction and sets their IDs.
func (s *SQLiteStore) InsertPincodes(ctx context.Context, pins []Pincode) (int64, error) {
	if len(pins) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin pincodes tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO pincodes (place_id, pincode) VALUES (?, ?)")
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare pincode insert")
	}
	defer stmt.Close()

	for i := range pins {
		res, err := stmt.ExecContext(ctx, pins[i].PlaceID, pins[i].Pincode)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert pincode for place %d", pins[i].PlaceID)
		}
		if pins[i].ID, err = res.LastInsertId(); err != nil {
			return 0, eris.Wrap(err, "sqlite: pincode id")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit pincodes")
	}
	return int64(len(pins)), nil
}

func sqliteNotFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return eris.Wrapf(err, "sqlite: %s", op)
}
