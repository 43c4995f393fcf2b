package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/locality/internal/location"
)

var andheri = Bindings{
	PlaceID:      2,
	PlaceName:    "Andheri",
	PlaceSlug:    "andheri",
	DistrictName: "Mumbai",
	StateName:    "Maharashtra",
}

func TestRender(t *testing.T) {
	tmpl := Template{
		Key:         "cafes",
		Title:       "Cafes in {{place_name}}, {{state_name}}",
		Description: "Best cafes near {{place_name}} in {{district_name}} district.",
		Slug:        "cafes-in-{{place_name}}",
	}

	got := Render(tmpl, andheri)
	assert.Equal(t, Rendered{
		Key:         "cafes",
		PlaceID:     2,
		Title:       "Cafes in Andheri, Maharashtra",
		Description: "Best cafes near Andheri in Mumbai district.",
		Slug:        "cafes-in-andheri",
	}, got)
}

func TestRender_SlugFieldUsesSlugForms(t *testing.T) {
	b := andheri
	b.DistrictName = "North Goa"
	got := Render(Template{Slug: "gyms-{{district_name}}-{{state_name}}-{{place_slug}}"}, b)
	assert.Equal(t, "gyms-north-goa-maharashtra-andheri", got.Slug)
}

func TestRender_LegacyToken(t *testing.T) {
	got := Render(Template{
		Title: "Hotels in place_name",
		Slug:  "hotels-in-place_name",
	}, andheri)
	assert.Equal(t, "Hotels in Andheri", got.Title)
	assert.Equal(t, "hotels-in-andheri", got.Slug)
}

func TestRender_UnknownPlaceholdersKept(t *testing.T) {
	got := Render(Template{
		Title: "{{category}} in {{place_name}}",
		Slug:  "{{place_name_alt}}",
	}, andheri)
	assert.Equal(t, "{{category}} in Andheri", got.Title)
	assert.Equal(t, "{{place_name_alt}}", got.Slug)
}

func TestRender_IsPure(t *testing.T) {
	tmpl := Template{Title: "In {{place_name}}"}
	a := Render(tmpl, andheri)
	b := Render(tmpl, andheri)
	assert.Equal(t, a, b)
	assert.Equal(t, "In {{place_name}}", tmpl.Title)
}

func TestBindingsFor(t *testing.T) {
	p := location.Place{ID: 7, Name: "Thane", Slug: "thane"}
	b := BindingsFor(p, &location.District{Name: "Thane"}, &location.State{Name: "Maharashtra"})
	assert.Equal(t, Bindings{PlaceID: 7, PlaceName: "Thane", PlaceSlug: "thane", DistrictName: "Thane", StateName: "Maharashtra"}, b)

	b = BindingsFor(p, nil, nil)
	assert.Empty(t, b.DistrictName)
	assert.Empty(t, b.StateName)
}

func TestVariants(t *testing.T) {
	thane := Bindings{PlaceID: 3, PlaceName: "Thane", PlaceSlug: "thane"}
	out := Variants(Template{Key: "k", Slug: "spa-{{place_name}}"}, []Bindings{andheri, thane})
	require.Len(t, out, 2)
	assert.Equal(t, "spa-andheri", out[0].Slug)
	assert.Equal(t, "spa-thane", out[1].Slug)
	assert.Equal(t, int64(3), out[1].PlaceID)

	assert.Empty(t, Variants(Template{}, nil))
}

// ---------------------------------------------------------------------------
// Template files
// ---------------------------------------------------------------------------

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - key: cafes
    title: "Cafes in {{place_name}}"
    description: "Coffee near {{place_name}}"
    slug: "cafes-in-{{place_name}}"
  - key: gyms
    title: "Gyms in place_name"
    slug: "gyms-in-place_name"
`), 0o600))

	set, err := LoadTemplates(path)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "Cafes in {{place_name}}", set["cafes"].Title)
	assert.Equal(t, "gyms-in-place_name", set["gyms"].Slug)
}

func TestParseTemplates_Errors(t *testing.T) {
	_, err := ParseTemplates([]byte("templates:\n  - title: x\n"))
	assert.Error(t, err)

	_, err = ParseTemplates([]byte("templates:\n  - key: a\n  - key: a\n"))
	assert.Error(t, err)

	_, err = ParseTemplates([]byte("templates: [\n"))
	assert.Error(t, err)

	_, err = LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
