// Package render substitutes location values into listing templates, one
// variant per nearby place.
package render

import (
	"regexp"
	"strings"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/slug"
)

// Placeholder is a {{name}} token recognised in templates.
type Placeholder string

const (
	PlaceName    Placeholder = "{{place_name}}"
	PlaceSlug    Placeholder = "{{place_slug}}"
	DistrictName Placeholder = "{{district_name}}"
	StateName    Placeholder = "{{state_name}}"
)

// legacyToken matches the bare place_name token that older templates use.
var legacyToken = regexp.MustCompile(`\bplace_name\b`)

// Template is a listing whose fields carry placeholders.
type Template struct {
	Key         string `yaml:"key" json:"key"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Slug        string `yaml:"slug" json:"slug"`
}

// Bindings are the values substituted for one place.
type Bindings struct {
	PlaceID      int64
	PlaceName    string
	PlaceSlug    string
	DistrictName string
	StateName    string
}

// Rendered is a template with every known placeholder substituted.
type Rendered struct {
	Key         string `json:"key"`
	PlaceID     int64  `json:"place_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}

// BindingsFor builds bindings from a place and its parents. Nil parents
// leave their names empty.
func BindingsFor(p location.Place, d *location.District, s *location.State) Bindings {
	b := Bindings{PlaceID: p.ID, PlaceName: p.Name, PlaceSlug: p.Slug}
	if d != nil {
		b.DistrictName = d.Name
	}
	if s != nil {
		b.StateName = s.Name
	}
	return b
}

// Render substitutes b into t. Text fields get display names; the slug field
// gets slug forms, so a place placeholder there becomes the place's slug.
// Unknown placeholders are left as written.
func Render(t Template, b Bindings) Rendered {
	text := strings.NewReplacer(
		string(PlaceName), b.PlaceName,
		string(PlaceSlug), b.PlaceSlug,
		string(DistrictName), b.DistrictName,
		string(StateName), b.StateName,
	)
	slugs := strings.NewReplacer(
		string(PlaceName), b.PlaceSlug,
		string(PlaceSlug), b.PlaceSlug,
		string(DistrictName), slug.Make(b.DistrictName),
		string(StateName), slug.Make(b.StateName),
	)
	return Rendered{
		Key:         t.Key,
		PlaceID:     b.PlaceID,
		Title:       legacy(text.Replace(t.Title), b.PlaceName),
		Description: legacy(text.Replace(t.Description), b.PlaceName),
		Slug:        legacy(slugs.Replace(t.Slug), b.PlaceSlug),
	}
}

func legacy(s, value string) string {
	if !strings.Contains(s, "place_name") {
		return s
	}
	return legacyToken.ReplaceAllLiteralString(s, value)
}

// Variants renders t once per binding, in order.
func Variants(t Template, places []Bindings) []Rendered {
	out := make([]Rendered, 0, len(places))
	for _, b := range places {
		out = append(out, Render(t, b))
	}
	return out
}
