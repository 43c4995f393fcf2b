// Package slugtrie indexes location slugs by their reversed characters so the
// longest known slug ending a query string can be found in time proportional
// to the query, independent of how many slugs are indexed.
package slugtrie

type node struct {
	children map[rune]*node
	// slug is the original (non-reversed) slug ending at this node, if any.
	slug     string
	terminal bool
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// Trie is a prefix tree over reversed slugs.
//
// A Trie is not safe for concurrent Insert. Once built, any number of
// goroutines may call MatchSuffix concurrently.
type Trie struct {
	root *node
	size int
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{root: newNode()}
}

// Build returns a Trie holding every slug in slugs.
func Build(slugs []string) *Trie {
	t := New()
	for _, s := range slugs {
		t.Insert(s)
	}
	return t
}

// Insert adds slug to the trie. Inserting the same slug twice is a no-op.
// The empty slug is ignored.
func (t *Trie) Insert(slug string) {
	if slug == "" {
		return
	}
	n := t.root
	for _, r := range reverse(slug) {
		child, ok := n.children[r]
		if !ok {
			child = newNode()
			n.children[r] = child
		}
		n = child
	}
	if !n.terminal {
		t.size++
	}
	n.terminal = true
	n.slug = slug
}

// MatchSuffix returns the longest inserted slug that is a suffix of query.
// It reports false when no inserted slug ends query, including when query is
// empty or a slug only occurs as a prefix or infix of query.
func (t *Trie) MatchSuffix(query string) (string, bool) {
	var (
		best  string
		found bool
	)
	n := t.root
	for _, r := range reverse(query) {
		child, ok := n.children[r]
		if !ok {
			break
		}
		n = child
		// Deeper terminals are longer suffixes, so the last one wins.
		if n.terminal {
			best, found = n.slug, true
		}
	}
	return best, found
}

// Len returns the number of distinct slugs in the trie.
func (t *Trie) Len() int {
	return t.size
}

func reverse(s string) []rune {
	rs := []rune(s)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return rs
}
