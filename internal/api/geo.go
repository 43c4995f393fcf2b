package api

import (
	"encoding/json"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/nearby"
)

// earthRadiusKm is the IUGG mean radius.
const earthRadiusKm = 6371.0088

// greatCircleKm is reported alongside results for display. Ranking always
// uses the planar distance.
func greatCircleKm(lat0, lon0, lat, lon float64) float64 {
	a := s2.LatLngFromDegrees(lat0, lon0)
	b := s2.LatLngFromDegrees(lat, lon)
	return a.Distance(b).Radians() * earthRadiusKm
}

// placeJSON is a place annotated with the coordinate that matched.
type placeJSON struct {
	location.Place
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Geohash    string  `json:"geohash"`
	Distance   float64 `json:"distance"`
	DistanceKm float64 `json:"distance_km"`
}

func annotate(lat, lon float64, h nearby.Hit) placeJSON {
	c := h.Coordinate
	return placeJSON{
		Place:      h.Place,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Geohash:    geohash.Encode(c.Latitude, c.Longitude),
		Distance:   h.Distance,
		DistanceKm: greatCircleKm(lat, lon, c.Latitude, c.Longitude),
	}
}

// featureCollection renders hits as GeoJSON points, longitude first.
func featureCollection(places []placeJSON) ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(places))}
	for _, p := range places {
		pt := geom.NewPointFlat(geom.XY, []float64{p.Longitude, p.Latitude})
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: pt,
			Properties: map[string]any{
				"id":          p.ID,
				"name":        p.Name,
				"slug":        p.Slug,
				"district_id": p.DistrictID,
				"state_id":    p.StateID,
				"geohash":     p.Geohash,
				"distance":    p.Distance,
				"distance_km": p.DistanceKm,
			},
		})
	}
	b, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "api: encode geojson")
	}
	return b, nil
}
