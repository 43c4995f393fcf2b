// Package importer loads the location hierarchy from CSV into a store.
//
// Rows have the columns state, district, place, latitude, longitude and
// pincode, in any order. States, districts and places are matched by exact name
// within their parent and created on first sight with a globally unique slug.
// Coordinates and pincodes are appended; repeats within one run are skipped.
package importer

import (
	"context"
	"errors"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/slug"
)

// Columns are the recognised header names.
var Columns = []string{"state", "district", "place", "latitude", "longitude", "pincode"}

var requiredColumns = []string{"state", "district", "place"}

// Stats summarises one import run. Entity counts are rows created, not seen.
type Stats struct {
	BatchID     string        `json:"batch_id"`
	Rows        int           `json:"rows"`
	States      int           `json:"states"`
	Districts   int           `json:"districts"`
	Places      int           `json:"places"`
	Coordinates int64         `json:"coordinates"`
	Pincodes    int64         `json:"pincodes"`
	Skipped     int           `json:"skipped"`
	Duration    time.Duration `json:"duration"`
}

type coordKey struct {
	placeID  int64
	lat, lon float64
}

type pinKey struct {
	placeID int64
	pincode string
}

type districtKey struct {
	stateID int64
	name    string
}

type placeKey struct {
	districtID int64
	name       string
}

// Importer loads CSV data through a location.Loader. An Importer is not safe
// for concurrent runs.
type Importer struct {
	store location.Loader
	log   *zap.Logger
}

// New returns an Importer writing to store.
func New(store location.Loader) *Importer {
	return &Importer{
		store: store,
		log:   zap.L().With(zap.String("component", "importer")),
	}
}

// run holds per-import state.
type run struct {
	*Importer
	stats     Stats
	col       map[string]int
	states    map[string]*location.State
	districts map[districtKey]*location.District
	places    map[placeKey]*location.Place
	coordSeen map[coordKey]bool
	pinSeen   map[pinKey]bool
	coords    []location.Coordinate
	pins      []location.Pincode
}

// Import reads CSV from r and writes it to the store. Parsing and loading run
// as two stages; a failure in either cancels the other.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Stats, error) {
	start := time.Now()
	ru := &run{
		Importer:  im,
		stats:     Stats{BatchID: uuid.NewString()},
		states:    map[string]*location.State{},
		districts: map[districtKey]*location.District{},
		places:    map[placeKey]*location.Place{},
		coordSeen: map[coordKey]bool{},
		pinSeen:   map[pinKey]bool{},
	}
	log := im.log.With(zap.String("batch_id", ru.stats.BatchID))

	header := make(chan []string, 1)
	records := make(chan record, 64)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return streamCSV(gctx, r, header, records)
	})
	g.Go(func() error {
		var h []string
		select {
		case h = <-header:
		case <-gctx.Done():
			return nil
		}
		if err := ru.mapHeader(h); err != nil {
			return err
		}
		for rec := range records {
			if err := ru.row(gctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		// Places from accepted rows are already stored; keep their points.
		if ctx.Err() == nil {
			if ferr := ru.flush(ctx); ferr != nil {
				log.Warn("importer: flush after failure", zap.Error(ferr))
			}
		}
		ru.stats.Duration = time.Since(start)
		return ru.stats, err
	}

	if err := ru.flush(ctx); err != nil {
		return ru.stats, err
	}
	ru.stats.Duration = time.Since(start)

	log.Info("import complete",
		zap.Int("rows", ru.stats.Rows),
		zap.Int("states", ru.stats.States),
		zap.Int("districts", ru.stats.Districts),
		zap.Int("places", ru.stats.Places),
		zap.Int64("coordinates", ru.stats.Coordinates),
		zap.Int64("pincodes", ru.stats.Pincodes),
		zap.Int("skipped", ru.stats.Skipped),
		zap.Duration("duration", ru.stats.Duration),
	)
	return ru.stats, nil
}

// flush writes the coordinates and pincodes buffered so far.
func (ru *run) flush(ctx context.Context) error {
	var err error
	if ru.stats.Coordinates, err = ru.store.InsertCoordinates(ctx, ru.coords); err != nil {
		return eris.Wrap(err, "importer: insert coordinates")
	}
	if ru.stats.Pincodes, err = ru.store.InsertPincodes(ctx, ru.pins); err != nil {
		return eris.Wrap(err, "importer: insert pincodes")
	}
	return nil
}

func (ru *run) mapHeader(h []string) error {
	ru.col = make(map[string]int, len(h))
	for i, name := range h {
		name = strings.ToLower(name)
		if !slices.Contains(Columns, name) {
			ru.log.Debug("ignoring column", zap.String("column", name))
			continue
		}
		ru.col[name] = i
	}
	for _, c := range requiredColumns {
		if _, ok := ru.col[c]; !ok {
			return eris.Errorf("importer: missing column %q", c)
		}
	}
	return nil
}

func (ru *run) field(rec record, name string) string {
	i, ok := ru.col[name]
	if !ok || i >= len(rec.fields) {
		return ""
	}
	return rec.fields[i]
}

func (ru *run) row(ctx context.Context, rec record) error {
	ru.stats.Rows++
	stateName := ru.field(rec, "state")
	districtName := ru.field(rec, "district")
	placeName := ru.field(rec, "place")
	if slug.Make(stateName) == "" || slug.Make(districtName) == "" || slug.Make(placeName) == "" {
		ru.stats.Skipped++
		ru.log.Debug("skipping row without names", zap.Int("line", rec.line))
		return nil
	}

	st, err := ru.state(ctx, stateName)
	if err != nil {
		return eris.Wrapf(err, "importer: line %d", rec.line)
	}
	d, err := ru.district(ctx, st, districtName)
	if err != nil {
		return eris.Wrapf(err, "importer: line %d", rec.line)
	}
	p, err := ru.place(ctx, d, placeName)
	if err != nil {
		return eris.Wrapf(err, "importer: line %d", rec.line)
	}

	if lat, lon, ok := parseLatLon(ru.field(rec, "latitude"), ru.field(rec, "longitude")); ok {
		k := coordKey{p.ID, lat, lon}
		if !ru.coordSeen[k] {
			ru.coordSeen[k] = true
			ru.coords = append(ru.coords, location.Coordinate{PlaceID: p.ID, Latitude: lat, Longitude: lon})
		}
	}
	if pin := ru.field(rec, "pincode"); pin != "" {
		k := pinKey{p.ID, pin}
		if !ru.pinSeen[k] {
			ru.pinSeen[k] = true
			ru.pins = append(ru.pins, location.Pincode{PlaceID: p.ID, Pincode: pin})
		}
	}
	return nil
}

func (ru *run) state(ctx context.Context, name string) (*location.State, error) {
	if st, ok := ru.states[name]; ok {
		return st, nil
	}
	st, err := ru.store.FindStateByName(ctx, name)
	if errors.Is(err, location.ErrNotFound) {
		st = &location.State{Name: name}
		st.Slug, err = ru.uniqueSlug(ctx, location.KindState, slug.Make(name))
		if err == nil {
			err = ru.store.InsertState(ctx, st)
		}
		if err == nil {
			ru.stats.States++
		}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "state %q", name)
	}
	ru.states[name] = st
	return st, nil
}

func (ru *run) district(ctx context.Context, st *location.State, name string) (*location.District, error) {
	key := districtKey{st.ID, name}
	if d, ok := ru.districts[key]; ok {
		return d, nil
	}
	d, err := ru.store.FindDistrictByName(ctx, st.ID, name)
	if errors.Is(err, location.ErrNotFound) {
		d = &location.District{Name: name, StateID: st.ID}
		d.Slug, err = ru.uniqueSlug(ctx, location.KindDistrict, slug.DistrictBase(name, st.Name))
		if err == nil {
			err = ru.store.InsertDistrict(ctx, d)
		}
		if err == nil {
			ru.stats.Districts++
		}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "district %q", name)
	}
	ru.districts[key] = d
	return d, nil
}

func (ru *run) place(ctx context.Context, d *location.District, name string) (*location.Place, error) {
	key := placeKey{d.ID, name}
	if p, ok := ru.places[key]; ok {
		return p, nil
	}
	p, err := ru.store.FindPlaceByName(ctx, d.ID, name)
	if errors.Is(err, location.ErrNotFound) {
		p = &location.Place{Name: name, DistrictID: d.ID, StateID: d.StateID}
		p.Slug, err = ru.uniqueSlug(ctx, location.KindPlace, slug.Make(name))
		if err == nil {
			err = ru.store.InsertPlace(ctx, p)
		}
		if err == nil {
			ru.stats.Places++
		}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "place %q", name)
	}
	ru.places[key] = p
	return p, nil
}

func (ru *run) uniqueSlug(ctx context.Context, kind location.Kind, base string) (string, error) {
	return slug.Unique(ctx, base, func(ctx context.Context, s string) (bool, error) {
		return ru.store.SlugExists(ctx, kind, s)
	})
}

func parseLatLon(lat, lon string) (float64, float64, bool) {
	if lat == "" || lon == "" {
		return 0, 0, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, false
	}
	if math.IsNaN(la) || math.IsNaN(lo) || math.IsInf(la, 0) || math.IsInf(lo, 0) {
		return 0, 0, false
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return 0, 0, false
	}
	return la, lo, true
}
