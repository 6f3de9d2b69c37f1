package registry

import (
	"slices"
	"sort"
)

// RankingEngine orders entries by descending rank and caches the result per
// registry generation.
type RankingEngine struct {
	cache viewCache
}

// NewRankingEngine returns an empty engine.
func NewRankingEngine() *RankingEngine {
	return &RankingEngine{}
}

// Order returns entries sorted by descending rank. The sort is stable, so
// entries with equal rank keep the order they have in entries. The result
// for a generation is computed once.
func (e *RankingEngine) Order(generation uint64, entries []Entry) []Entry {
	if cached, ok := e.cache.get(generation); ok {
		return cached
	}
	ranked := SortByRank(entries)
	e.cache.store(generation, ranked)
	return ranked
}

// SortByRank returns a copy of entries stably sorted by descending rank.
// Blueprints without a declared rank carry NormalRank.
func SortByRank(entries []Entry) []Entry {
	out := slices.Clone(entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Blueprint.Rank() > out[j].Blueprint.Rank()
	})
	return out
}
