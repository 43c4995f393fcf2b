// Package slug derives URL-safe identifiers from location names.
package slug

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxAttempts bounds the numeric suffix search in Unique.
const maxAttempts = 10000

// Make lowercases name, folds diacritics, and joins runs of letters and
// digits with single hyphens. "São Paulo" becomes "sao-paulo".
func Make(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// DistrictBase is the slug base for a district: its name followed by its
// state's name.
func DistrictBase(name, stateName string) string {
	return Make(name + " " + stateName)
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Unique returns base if it is free, otherwise the first free of base-1,
// base-2, and so on.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	if base == "" {
		return "", eris.New("slug: empty base")
	}
	candidate := base
	for i := 1; i <= maxAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", eris.Wrapf(err, "slug: check %q", candidate)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", eris.Errorf("slug: no free suffix for %q", base)
}
