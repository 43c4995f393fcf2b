// Package location holds the read-only State → District → Place hierarchy,
// the coordinates and pincodes attached to places, and the stores that serve
// them.
package location

import "strings"

// Kind names a level of the location hierarchy.
type Kind string

// Hierarchy levels, in resolution priority order.
const (
	KindState    Kind = "state"
	KindDistrict Kind = "district"
	KindPlace    Kind = "place"
)

// Kinds lists every Kind in resolution priority order.
var Kinds = []Kind{KindState, KindDistrict, KindPlace}

// ParseKind parses a case-insensitive kind name.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindState, KindDistrict, KindPlace:
		return true
	}
	return false
}

// IsRegion reports whether k aggregates places (state or district).
func (k Kind) IsRegion() bool {
	return k == KindState || k == KindDistrict
}

// State is the root of the hierarchy.
type State struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// District belongs to exactly one State. Its slug is unique system-wide.
type District struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	StateID int64  `json:"state_id"`
}

// Place belongs to one District. StateID is stored redundantly and must match
// the district's state.
type Place struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	DistrictID int64  `json:"district_id"`
	StateID    int64  `json:"state_id"`
}

// Coordinate is one recorded lat/lon for a place. A place may have several.
type Coordinate struct {
	ID        int64   `json:"id"`
	PlaceID   int64   `json:"place_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Pincode is one recorded postal code for a place. A place may have several.
type Pincode struct {
	ID      int64  `json:"id"`
	PlaceID int64  `json:"place_id"`
	Pincode string `json:"pincode"`
}

// Located pairs a coordinate with the place that owns it.
type Located struct {
	Place      Place
	Coordinate Coordinate
}

// BBox is a closed latitude/longitude rectangle.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// BoxAround returns the square box of half-width delta degrees around a point.
func BoxAround(lat, lon, delta float64) BBox {
	return BBox{
		MinLat: lat - delta,
		MaxLat: lat + delta,
		MinLon: lon - delta,
		MaxLon: lon + delta,
	}
}

// Grow returns b widened by eps on every side.
func (b BBox) Grow(eps float64) BBox {
	return BBox{
		MinLat: b.MinLat - eps,
		MaxLat: b.MaxLat + eps,
		MinLon: b.MinLon - eps,
		MaxLon: b.MaxLon + eps,
	}
}

// Inconsistency describes a place whose denormalized state disagrees with
// its district's state.
type Inconsistency struct {
	PlaceID         int64  `json:"place_id"`
	PlaceSlug       string `json:"place_slug"`
	PlaceStateID    int64  `json:"place_state_id"`
	DistrictID      int64  `json:"district_id"`
	DistrictStateID int64  `json:"district_state_id"`
}
