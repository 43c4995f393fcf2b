package location

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("location: not found")

// Store is the read-only data access layer over the location hierarchy.
// Implementations are safe for concurrent use.
type Store interface {
	// ListSlugs returns every slug of the given kind.
	ListSlugs(ctx context.Context, kind Kind) ([]string, error)

	// StateBySlug, DistrictBySlug and PlaceBySlug return ErrNotFound when absent.
	StateBySlug(ctx context.Context, slug string) (*State, error)
	DistrictBySlug(ctx context.Context, slug string) (*District, error)
	PlaceBySlug(ctx context.Context, slug string) (*Place, error)

	// GetState, GetDistrict and GetPlace return ErrNotFound when absent.
	GetState(ctx context.Context, id int64) (*State, error)
	GetDistrict(ctx context.Context, id int64) (*District, error)
	GetPlace(ctx context.Context, id int64) (*Place, error)

	// PlacesInBox returns every coordinate inside the closed box together
	// with its place, ordered by coordinate id.
	PlacesInBox(ctx context.Context, box BBox) ([]Located, error)

	// NearestCoordinate returns the coordinate with the smallest planar
	// distance to the point, ties broken by lowest coordinate id. It returns
	// ErrNotFound when no coordinates are stored.
	NearestCoordinate(ctx context.Context, lat, lon float64) (*Coordinate, error)

	// RegionCoordinates returns the coordinates of every place in a state or
	// district, ordered by coordinate id.
	RegionCoordinates(ctx context.Context, kind Kind, id int64) ([]Coordinate, error)

	// PincodesByPlace returns a place's pincodes ordered by id.
	PincodesByPlace(ctx context.Context, placeID int64) ([]Pincode, error)

	// DistrictPincodesByPlaceName returns pincodes of the district's places
	// whose name equals name, case-insensitively, ordered by id.
	DistrictPincodesByPlaceName(ctx context.Context, districtID int64, name string) ([]Pincode, error)

	// CheckConsistency lists places whose state disagrees with their district's.
	CheckConsistency(ctx context.Context) ([]Inconsistency, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Loader is the write side used by the offline importer.
type Loader interface {
	FindStateByName(ctx context.Context, name string) (*State, error)
	FindDistrictByName(ctx context.Context, stateID int64, name string) (*District, error)
	FindPlaceByName(ctx context.Context, districtID int64, name string) (*Place, error)

	SlugExists(ctx context.Context, kind Kind, slug string) (bool, error)

	// InsertState, InsertDistrict and InsertPlace set the new row's ID.
	InsertState(ctx context.Context, s *State) error
	InsertDistrict(ctx context.Context, d *District) error
	InsertPlace(ctx context.Context, p *Place) error

	InsertCoordinates(ctx context.Context, coords []Coordinate) (int64, error)
	InsertPincodes(ctx context.Context, pins []Pincode) (int64, error)
}

// ReadWriter combines Store and Loader; both bundled stores implement it.
type ReadWriter interface {
	Store
	Loader
}
