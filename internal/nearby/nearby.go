// Package nearby answers proximity questions over recorded place coordinates:
// which places lie in a small box around a point, which single place is
// nearest, and which coordinate and pincode represent a state or district.
//
// Distances are planar, sqrt(dlat² + dlon²) in degrees. This is deliberate:
// existing expectations were derived with this metric.
package nearby

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/metrics"
)

// DefaultDelta is the half-width of the search box in degrees.
const DefaultDelta = 0.05

// boxSlack widens the store query so float rounding in SQL never drops a
// coordinate that the exact check below would keep.
const boxSlack = 1e-9

var (
	// ErrNoCoordinates means the store (or region) has no coordinates.
	ErrNoCoordinates = errors.New("nearby: no coordinates")
	// ErrRegionNotFound means the state or district does not exist.
	ErrRegionNotFound = errors.New("nearby: region not found")
	// ErrInvalidRegion means the kind is not state or district.
	ErrInvalidRegion = errors.New("nearby: kind is not a region")
	// ErrNoPincode means no pincode could be chosen for the region.
	ErrNoPincode = errors.New("nearby: no pincode")
)

// Store is the subset of location.Store used here.
type Store interface {
	GetState(ctx context.Context, id int64) (*location.State, error)
	GetDistrict(ctx context.Context, id int64) (*location.District, error)
	GetPlace(ctx context.Context, id int64) (*location.Place, error)
	PlacesInBox(ctx context.Context, box location.BBox) ([]location.Located, error)
	NearestCoordinate(ctx context.Context, lat, lon float64) (*location.Coordinate, error)
	RegionCoordinates(ctx context.Context, kind location.Kind, id int64) ([]location.Coordinate, error)
	PincodesByPlace(ctx context.Context, placeID int64) ([]location.Pincode, error)
	DistrictPincodesByPlaceName(ctx context.Context, districtID int64, name string) ([]location.Pincode, error)
}

// Hit is a place together with the coordinate that placed it in a result.
type Hit struct {
	Place      location.Place      `json:"place"`
	Coordinate location.Coordinate `json:"coordinate"`
	// Distance is the planar distance in degrees from the query point.
	Distance float64 `json:"distance"`
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithDelta overrides the search box half-width. Non-positive values are ignored.
func WithDelta(d float64) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.delta = d
		}
	}
}

// Searcher runs proximity queries. It holds no mutable state and is safe for
// concurrent use.
type Searcher struct {
	store Store
	delta float64
}

// NewSearcher returns a Searcher over store.
func NewSearcher(store Store, opts ...Option) *Searcher {
	s := &Searcher{store: store, delta: DefaultDelta}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delta returns the box half-width in degrees.
func (s *Searcher) Delta() float64 {
	return s.delta
}

// PlanarDistance returns sqrt((lat-lat0)² + (lon-lon0)²).
func PlanarDistance(lat0, lon0, lat, lon float64) float64 {
	return math.Sqrt((lat-lat0)*(lat-lat0) + (lon-lon0)*(lon-lon0))
}

// ParseCoordinates parses a lat/lon pair. It reports false for empty,
// non-numeric, NaN or infinite input.
func ParseCoordinates(lat, lon string) (float64, float64, bool) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return 0, 0, false
	}
	if !finite(la) || !finite(lo) {
		return 0, 0, false
	}
	return la, lo, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Nearby parses lat and lon and runs NearbyAt. Unparsable input yields an
// empty result and no error.
func (s *Searcher) Nearby(ctx context.Context, lat, lon string) ([]Hit, error) {
	la, lo, ok := ParseCoordinates(lat, lon)
	if !ok {
		metrics.NearbyEmptyTotal.Inc()
		return nil, nil
	}
	return s.NearbyAt(ctx, la, lo)
}

// NearbyAt returns every place with at least one coordinate within delta
// degrees of the point on both axes. Each place appears once, represented by
// its closest in-box coordinate, and results are ordered by that distance
// with ties kept in store order.
func (s *Searcher) NearbyAt(ctx context.Context, lat, lon float64) ([]Hit, error) {
	if !finite(lat) || !finite(lon) {
		metrics.NearbyEmptyTotal.Inc()
		return nil, nil
	}

	box := location.BoxAround(lat, lon, s.delta)
	rows, err := s.store.PlacesInBox(ctx, box.Grow(boxSlack))
	if err != nil {
		return nil, eris.Wrap(err, "nearby: query box")
	}

	index := make(map[int64]int, len(rows))
	var hits []Hit
	for _, r := range rows {
		c := r.Coordinate
		if math.Abs(c.Latitude-lat) > s.delta || math.Abs(c.Longitude-lon) > s.delta {
			continue
		}
		d := PlanarDistance(lat, lon, c.Latitude, c.Longitude)
		if i, seen := index[r.Place.ID]; seen {
			if d < hits[i].Distance {
				hits[i].Coordinate = c
				hits[i].Distance = d
			}
			continue
		}
		index[r.Place.ID] = len(hits)
		hits = append(hits, Hit{Place: r.Place, Coordinate: c, Distance: d})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) == 0 {
		metrics.NearbyEmptyTotal.Inc()
	}
	return hits, nil
}

// Nearest returns the place owning the single closest coordinate. Ties go to
// the lowest coordinate id.
func (s *Searcher) Nearest(ctx context.Context, lat, lon float64) (*Hit, error) {
	if !finite(lat) || !finite(lon) {
		return nil, ErrNoCoordinates
	}
	c, err := s.store.NearestCoordinate(ctx, lat, lon)
	if errors.Is(err, location.ErrNotFound) {
		return nil, ErrNoCoordinates
	}
	if err != nil {
		return nil, eris.Wrap(err, "nearby: nearest coordinate")
	}
	p, err := s.store.GetPlace(ctx, c.PlaceID)
	if err != nil {
		return nil, eris.Wrapf(err, "nearby: place %d for coordinate %d", c.PlaceID, c.ID)
	}
	return &Hit{
		Place:      *p,
		Coordinate: *c,
		Distance:   PlanarDistance(lat, lon, c.Latitude, c.Longitude),
	}, nil
}
