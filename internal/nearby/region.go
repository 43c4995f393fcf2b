package nearby

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/locality/internal/location"
)

// Center returns the representative coordinate of a state or district: the
// element at index len/2 of the region's coordinates in id order. This is the
// middle-inserted coordinate, not a centroid, and is stable for an unchanged
// coordinate set.
func (s *Searcher) Center(ctx context.Context, kind location.Kind, id int64) (*location.Coordinate, error) {
	if err := s.regionExists(ctx, kind, id); err != nil {
		return nil, err
	}
	return s.center(ctx, kind, id)
}

func (s *Searcher) center(ctx context.Context, kind location.Kind, id int64) (*location.Coordinate, error) {
	coords, err := s.store.RegionCoordinates(ctx, kind, id)
	if err != nil {
		return nil, eris.Wrapf(err, "nearby: %s %d coordinates", kind, id)
	}
	if len(coords) == 0 {
		return nil, ErrNoCoordinates
	}
	c := coords[len(coords)/2]
	return &c, nil
}

// Pincode returns a representative pincode for a state or district. A region
// without coordinates has no pincode. For a district, a pincode of a place
// named like the district is preferred. Otherwise the first pincode of the
// place owning the region's center coordinate is used.
func (s *Searcher) Pincode(ctx context.Context, kind location.Kind, id int64) (*location.Pincode, error) {
	if err := s.regionExists(ctx, kind, id); err != nil {
		return nil, err
	}
	c, err := s.center(ctx, kind, id)
	if errors.Is(err, ErrNoCoordinates) {
		return nil, ErrNoPincode
	}
	if err != nil {
		return nil, err
	}

	if kind == location.KindDistrict {
		d, err := s.store.GetDistrict(ctx, id)
		if err != nil {
			return nil, regionErr(err, kind, id)
		}
		pins, err := s.store.DistrictPincodesByPlaceName(ctx, d.ID, d.Name)
		if err != nil {
			return nil, eris.Wrapf(err, "nearby: district %d name pincodes", id)
		}
		if len(pins) > 0 {
			return &pins[0], nil
		}
	}

	pins, err := s.store.PincodesByPlace(ctx, c.PlaceID)
	if err != nil {
		return nil, eris.Wrapf(err, "nearby: place %d pincodes", c.PlaceID)
	}
	if len(pins) == 0 {
		return nil, ErrNoPincode
	}
	return &pins[0], nil
}

func (s *Searcher) regionExists(ctx context.Context, kind location.Kind, id int64) error {
	var err error
	switch kind {
	case location.KindState:
		_, err = s.store.GetState(ctx, id)
	case location.KindDistrict:
		_, err = s.store.GetDistrict(ctx, id)
	default:
		return ErrInvalidRegion
	}
	if err != nil {
		return regionErr(err, kind, id)
	}
	return nil
}

func regionErr(err error, kind location.Kind, id int64) error {
	if errors.Is(err, location.ErrNotFound) {
		return ErrRegionNotFound
	}
	return eris.Wrapf(err, "nearby: load %s %d", kind, id)
}
