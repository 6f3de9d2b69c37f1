package registry

import (
	"slices"
	"sync"
)

// viewCache holds one derived view together with the registry generation
// it was built from.
type viewCache struct {
	mu         sync.Mutex
	valid      bool
	generation uint64
	entries    []Entry
}

func (c *viewCache) get(generation uint64) ([]Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.generation != generation {
		return nil, false
	}
	return c.entries, true
}

// store replaces the cached view. The stored slice is never modified
// afterwards; a rebuild allocates a new one.
func (c *viewCache) store(generation uint64, entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = true
	c.generation = generation
	c.entries = entries
}

// snapshot runs the enumeration protocol: take the sorted key list, resolve
// every snapshot entry that is still a placeholder, then return the pairs.
// Names added after the key list was taken are not part of the result.
// Names that fail to load are left out and complete reports false; they
// stay placeholders and are tried again by the next enumeration.
func (r *Registry) snapshot() (entries []Entry, complete bool) {
	names := r.Names()

	entries = make([]Entry, 0, len(names))
	complete = true
	for _, name := range names {
		bp, err := r.load(name)
		if err != nil {
			complete = false
			continue
		}
		entries = append(entries, Entry{Name: name, Blueprint: bp})
	}
	return entries, complete
}

// sortedView returns the lexical view, rebuilding it when the registry
// changed. The generation is read before the snapshot so that a change
// racing with the rebuild always forces another one. A view missing a name
// that failed to load is returned but not cached.
func (r *Registry) sortedView() (entries []Entry, cacheable bool) {
	gen := r.currentGeneration()
	if entries, ok := r.sorted.get(gen); ok {
		return entries, true
	}
	entries, complete := r.snapshot()
	if complete {
		r.sorted.store(gen, entries)
	}
	return entries, complete
}

// rankedView returns the lexical view ordered by rank.
func (r *Registry) rankedView() []Entry {
	gen := r.currentGeneration()
	entries, cacheable := r.sortedView()
	if !cacheable {
		return SortByRank(entries)
	}
	return r.ranking.Order(gen, entries)
}

func (r *Registry) lexicalView() []Entry {
	entries, _ := r.sortedView()
	return entries
}

// Sorted returns the entries in lexical order that pass filter.
func (r *Registry) Sorted(filter Filter) []Entry {
	return r.filters.Apply(r.lexicalView(), filter)
}

// RankedOrder resolves every entry and returns all of them ordered by
// descending rank. Entries of equal rank keep their lexical order.
func (r *Registry) RankedOrder() []Entry {
	return slices.Clone(r.rankedView())
}

// Ranked returns the entries that pass filter in rank order.
func (r *Registry) Ranked(filter Filter) []Entry {
	return r.filters.Apply(r.rankedView(), filter)
}

// Each calls fn for every entry passing filter, in lexical order, until fn
// returns false. fn may register new modules; they show up in the next
// enumeration, not in this one.
func (r *Registry) Each(filter Filter, fn func(Entry) bool) {
	for _, e := range r.lexicalView() {
		if !r.filters.Matches(e.Name, e.Blueprint, filter) {
			continue
		}
		if !fn(e) {
			return
		}
	}
}
