package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/nearby"
	"github.com/sells-group/locality/internal/render"
	"github.com/sells-group/locality/internal/resolve"
	"github.com/sells-group/locality/internal/respcache"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	raw := r.URL.Query().Get("kind")
	hint, ok := location.ParseKind(raw)
	if !ok {
		// Unknown kinds go through to the matcher and come back unresolved.
		hint = location.Kind(raw)
	}

	res, err := s.deps.Matcher.Resolve(r.Context(), slug, hint)
	if err != nil {
		s.internal(w, r, "resolve", err)
		return
	}
	switch res.Outcome {
	case resolve.OutcomeResolved:
		writeJSON(w, http.StatusOK, res)
	case resolve.OutcomeDrift:
		writeJSON(w, http.StatusConflict, res)
	default:
		writeJSON(w, http.StatusNotFound, res)
	}
}

type nearbyResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Delta     float64     `json:"delta"`
	Count     int         `json:"count"`
	Places    []placeJSON `json:"places"`
}

func (s *Server) nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	geo := q.Get("format") == "geojson"
	lat, lon, ok := nearby.ParseCoordinates(q.Get("lat"), q.Get("lon"))

	contentType := "application/json"
	if geo {
		contentType = "application/geo+json"
	}
	key := respcache.Key("nearby", q.Get("format"), lat, lon)
	if ok && s.cached(w, r, key, contentType) {
		return
	}

	places := []placeJSON{}
	if ok {
		hits, err := s.deps.Searcher.NearbyAt(r.Context(), lat, lon)
		if err != nil {
			s.internal(w, r, "nearby", err)
			return
		}
		for _, h := range hits {
			places = append(places, annotate(lat, lon, h))
		}
	}

	var (
		body []byte
		err  error
	)
	if geo {
		body, err = featureCollection(places)
	} else {
		body, err = json.Marshal(nearbyResponse{
			Latitude:  lat,
			Longitude: lon,
			Delta:     s.deps.Searcher.Delta(),
			Count:     len(places),
			Places:    places,
		})
	}
	if err != nil {
		s.internal(w, r, "nearby encode", err)
		return
	}
	if ok {
		s.store(r.Context(), key, body)
	}
	writeRaw(w, http.StatusOK, contentType, body)
}

func (s *Server) nearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon, ok := nearby.ParseCoordinates(q.Get("lat"), q.Get("lon"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "lat and lon must be numbers")
		return
	}
	key := respcache.Key("nearest", lat, lon)
	if s.cached(w, r, key, "application/json") {
		return
	}

	hit, err := s.deps.Searcher.Nearest(r.Context(), lat, lon)
	if errors.Is(err, nearby.ErrNoCoordinates) {
		writeError(w, http.StatusNotFound, "no_coordinates", "no coordinates are stored")
		return
	}
	if err != nil {
		s.internal(w, r, "nearest", err)
		return
	}
	s.respondCached(w, r, key, annotate(lat, lon, *hit))
}

func (s *Server) center(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := regionParams(w, r)
	if !ok {
		return
	}
	key := respcache.Key("center", kind, id)
	if s.cached(w, r, key, "application/json") {
		return
	}
	c, err := s.deps.Searcher.Center(r.Context(), kind, id)
	if err != nil {
		s.regionError(w, r, err)
		return
	}
	s.respondCached(w, r, key, c)
}

func (s *Server) pincode(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := regionParams(w, r)
	if !ok {
		return
	}
	key := respcache.Key("pincode", kind, id)
	if s.cached(w, r, key, "application/json") {
		return
	}
	p, err := s.deps.Searcher.Pincode(r.Context(), kind, id)
	if err != nil {
		s.regionError(w, r, err)
		return
	}
	s.respondCached(w, r, key, p)
}

func regionParams(w http.ResponseWriter, r *http.Request) (location.Kind, int64, bool) {
	kind, ok := location.ParseKind(chi.URLParam(r, "kind"))
	if !ok || !kind.IsRegion() {
		writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be state or district")
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return "", 0, false
	}
	return kind, id, true
}

func (s *Server) regionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, nearby.ErrRegionNotFound):
		writeError(w, http.StatusNotFound, "region_not_found", "no such region")
	case errors.Is(err, nearby.ErrNoCoordinates):
		writeError(w, http.StatusNotFound, "no_coordinates", "region has no coordinates")
	case errors.Is(err, nearby.ErrNoPincode):
		writeError(w, http.StatusNotFound, "no_pincode", "region has no pincode")
	case errors.Is(err, nearby.ErrInvalidRegion):
		writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be state or district")
	default:
		s.internal(w, r, "region", err)
	}
}

type renderRequest struct {
	TemplateKey string           `json:"template_key"`
	Template    *render.Template `json:"template"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
}

type renderResponse struct {
	Count    int               `json:"count"`
	Variants []render.Rendered `json:"variants"`
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	var tmpl render.Template
	switch {
	case req.Template != nil:
		tmpl = *req.Template
	case req.TemplateKey != "":
		t, ok := s.deps.Templates[req.TemplateKey]
		if !ok {
			writeError(w, http.StatusNotFound, "template_not_found", "unknown template_key")
			return
		}
		tmpl = t
	default:
		writeError(w, http.StatusBadRequest, "missing_template", "template or template_key is required")
		return
	}

	hits, err := s.deps.Searcher.Nearby(r.Context(), req.Lat, req.Lon)
	if err != nil {
		s.internal(w, r, "render nearby", err)
		return
	}
	bindings, err := s.bindings(r.Context(), hits)
	if err != nil {
		s.internal(w, r, "render bindings", err)
		return
	}
	variants := render.Variants(tmpl, bindings)
	writeJSON(w, http.StatusOK, renderResponse{Count: len(variants), Variants: variants})
}

// bindings loads each hit's district and state names, once per id.
func (s *Server) bindings(ctx context.Context, hits []nearby.Hit) ([]render.Bindings, error) {
	districts := map[int64]*location.District{}
	states := map[int64]*location.State{}
	out := make([]render.Bindings, 0, len(hits))
	for _, h := range hits {
		d, ok := districts[h.Place.DistrictID]
		if !ok {
			var err error
			if d, err = s.deps.Store.GetDistrict(ctx, h.Place.DistrictID); err != nil && !errors.Is(err, location.ErrNotFound) {
				return nil, err
			}
			districts[h.Place.DistrictID] = d
		}
		st, ok := states[h.Place.StateID]
		if !ok {
			var err error
			if st, err = s.deps.Store.GetState(ctx, h.Place.StateID); err != nil && !errors.Is(err, location.ErrNotFound) {
				return nil, err
			}
			states[h.Place.StateID] = st
		}
		out = append(out, render.BindingsFor(h.Place, d, st))
	}
	return out, nil
}

// cached writes a cached body and reports true on a hit.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, key, contentType string) bool {
	b, ok, err := s.deps.Cache.Get(r.Context(), key)
	if err != nil {
		s.log.Debug("response cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	writeRaw(w, http.StatusOK, contentType, b)
	return true
}

func (s *Server) store(ctx context.Context, key string, body []byte) {
	if err := s.deps.Cache.Set(ctx, key, body); err != nil {
		s.log.Debug("response cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Server) respondCached(w http.ResponseWriter, r *http.Request, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.internal(w, r, "encode", err)
		return
	}
	s.store(r.Context(), key, b)
	writeRaw(w, http.StatusOK, "application/json", b)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.Error("request failed",
		zap.String("op", op),
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}
