package bolt

// BookmarkSet is a deduplicated, ordered set of causal-consistency
// bookmarks threaded between Begin's meta and a transaction's final
// Success.Bookmark. It does not resolve or expire bookmarks — that
// policy belongs to a higher-level driver this module doesn't
// implement (spec.md's Non-goal on bookmark management).
type BookmarkSet struct {
	order []string
	seen  map[string]struct{}
}

// NewBookmarkSet returns an empty BookmarkSet, optionally seeded with
// initial bookmarks.
func NewBookmarkSet(initial ...string) *BookmarkSet {
	bs := &BookmarkSet{seen: make(map[string]struct{})}
	bs.Add(initial...)
	return bs
}

// Add inserts bookmarks not already present, preserving first-seen
// order.
func (bs *BookmarkSet) Add(bookmarks ...string) {
	for _, b := range bookmarks {
		if b == "" {
			continue
		}
		if _, ok := bs.seen[b]; ok {
			continue
		}
		bs.seen[b] = struct{}{}
		bs.order = append(bs.order, b)
	}
}

// All returns every bookmark currently held, in first-seen order.
func (bs *BookmarkSet) All() []string {
	out := make([]string, len(bs.order))
	copy(out, bs.order)
	return out
}
