// Package search provides full-text search over module blueprints using an
// in-memory bleve index.
package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// DefaultLimit is the number of hits returned when no limit is given.
const DefaultLimit = 20

// Document is the indexed form of a blueprint.
type Document struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Authors       []string `json:"authors"`
	References    []string `json:"references"`
	Architectures []string `json:"architectures"`
	Platforms     []string `json:"platforms"`
	Rank          int      `json:"rank"`
}

// Hit is one search result.
type Hit struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// Index is a searchable set of blueprints. It is safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &Index{index: idx}, nil
}

// buildIndexMapping analyzes names and descriptions as text and indexes
// the remaining fields as exact keywords.
func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	keyword := bleve.NewKeywordFieldMapping()

	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("description", text)
	doc.AddFieldMappingsAt("authors", text)
	doc.AddFieldMappingsAt("references", keyword)
	doc.AddFieldMappingsAt("type", keyword)
	doc.AddFieldMappingsAt("tags", keyword)
	doc.AddFieldMappingsAt("architectures", keyword)
	doc.AddFieldMappingsAt("platforms", keyword)
	doc.AddFieldMappingsAt("rank", bleve.NewNumericFieldMapping())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// docID is the document identifier of a blueprint: "type/name".
func docID(bp *blueprint.Blueprint) string {
	return bp.String()
}

func newDocument(bp *blueprint.Blueprint) Document {
	return Document{
		Name:          bp.Name(),
		Type:          bp.Type(),
		Description:   bp.Description(),
		Tags:          lower(bp.Tags()),
		Authors:       bp.Authors(),
		References:    bp.References(),
		Architectures: bp.Architectures(),
		Platforms:     bp.Platforms(),
		Rank:          bp.Rank(),
	}
}

func lower(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}

// Add indexes bp, replacing an earlier document for the same module.
func (i *Index) Add(bp *blueprint.Blueprint) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.index.Index(docID(bp), newDocument(bp)); err != nil {
		return fmt.Errorf("indexing %s: %w", bp, err)
	}
	return nil
}

// Build indexes every entry in one batch.
func (i *Index) Build(entries []registry.Entry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	for _, e := range entries {
		if err := batch.Index(docID(e.Blueprint), newDocument(e.Blueprint)); err != nil {
			return fmt.Errorf("indexing %s: %w", e.Blueprint, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("writing search batch: %w", err)
	}
	return nil
}

// Search runs a bleve query string (e.g. "smb", "type:payload +platforms:linux")
// and returns up to limit hits by descending score. A limit <= 0 means
// DefaultLimit.
func (i *Index) Search(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), limit, 0, false)

	i.mu.RLock()
	res, err := i.index.Search(req)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", q, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		moduleType, name, _ := strings.Cut(h.ID, "/")
		hits = append(hits, Hit{Name: name, Type: moduleType, Score: h.Score})
	}
	return hits, nil
}

// Len returns the number of indexed documents.
func (i *Index) Len() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.index.DocCount()
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}
