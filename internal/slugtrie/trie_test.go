package slugtrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSuffix_ExactSlug(t *testing.T) {
	slugs := []string{"mumbai", "navi-mumbai", "thane", "jaipur", "udaipur"}
	tr := Build(slugs)

	for _, s := range slugs {
		got, ok := tr.MatchSuffix(s)
		assert.True(t, ok, s)
		assert.Equal(t, s, got)
	}
}

func TestMatchSuffix_LongestWins(t *testing.T) {
	tr := Build([]string{"mumbai", "navi-mumbai", "thane"})

	got, ok := tr.MatchSuffix("abc-navi-mumbai")
	assert.True(t, ok)
	assert.Equal(t, "navi-mumbai", got)

	got, ok = tr.MatchSuffix("navi-mumbai")
	assert.True(t, ok)
	assert.Equal(t, "navi-mumbai", got)

	got, ok = tr.MatchSuffix("plumbers-in-mumbai")
	assert.True(t, ok)
	assert.Equal(t, "mumbai", got)
}

func TestMatchSuffix_SharedEndings(t *testing.T) {
	tr := Build([]string{"pur", "jaipur", "udaipur", "nagpur"})

	tests := []struct {
		query string
		want  string
	}{
		{"hotels-in-jaipur", "jaipur"},
		{"udaipur", "udaipur"},
		{"kanpur", "pur"},
		{"xnagpur", "nagpur"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := tr.MatchSuffix(tt.query)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchSuffix_NoMatch(t *testing.T) {
	tr := Build([]string{"mumbai", "thane"})

	for _, q := range []string{"", "mumbai-plumbers", "x-thane-y", "pune", "ai"} {
		_, ok := tr.MatchSuffix(q)
		assert.False(t, ok, q)
	}
}

func TestMatchSuffix_EmptyTrie(t *testing.T) {
	_, ok := New().MatchSuffix("mumbai")
	assert.False(t, ok)
}

func TestInsert_DuplicateAndEmpty(t *testing.T) {
	tr := New()
	tr.Insert("thane")
	tr.Insert("thane")
	tr.Insert("")
	assert.Equal(t, 1, tr.Len())

	got, ok := tr.MatchSuffix("thane")
	assert.True(t, ok)
	assert.Equal(t, "thane", got)

	_, ok = tr.MatchSuffix("")
	assert.False(t, ok)
}

func TestMatchSuffix_Multibyte(t *testing.T) {
	tr := Build([]string{"são-paulo", "paulo"})

	got, ok := tr.MatchSuffix("cafe-são-paulo")
	assert.True(t, ok)
	assert.Equal(t, "são-paulo", got)
}

func TestLen(t *testing.T) {
	tr := Build([]string{"a", "b", "ab", "a"})
	assert.Equal(t, 3, tr.Len())
}
