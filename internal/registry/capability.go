package registry

import (
	"runtime"
	"slices"
	"sync"
	"weak"

	"github.com/agentx-labs/modreg/internal/blueprint"
)

// Capabilities is what a module declares it can run on.
type Capabilities struct {
	Architectures []string `json:"architectures"`
	Platforms     []string `json:"platforms"`
}

// CapabilityExtractor computes the capabilities of a blueprint. It may be
// expensive; the cache calls it once per blueprint.
type CapabilityExtractor func(bp *blueprint.Blueprint) (Capabilities, error)

// DeclaredCapabilities reads capabilities straight from the blueprint
// without creating a module.
func DeclaredCapabilities(bp *blueprint.Blueprint) (Capabilities, error) {
	return Capabilities{
		Architectures: bp.Architectures(),
		Platforms:     bp.Platforms(),
	}, nil
}

// instanceCapabilities is the default extractor: it creates a module
// through the factory and asks it. The probe instance is not announced to
// the notifier.
func (r *Registry) instanceCapabilities(bp *blueprint.Blueprint) (Capabilities, error) {
	m, err := r.factory.Instantiate(bp)
	if err != nil {
		return Capabilities{}, &InstantiationError{Name: bp.Name(), Err: err}
	}
	return Capabilities{
		Architectures: m.Architectures(),
		Platforms:     m.Platforms(),
	}, nil
}

// logExtractFailures wraps fn so each failure is logged once, when the
// cache first computes the entry.
func (r *Registry) logExtractFailures(fn CapabilityExtractor) CapabilityExtractor {
	return func(bp *blueprint.Blueprint) (Capabilities, error) {
		caps, err := fn(bp)
		if err != nil {
			r.logger.Warn("capability extraction failed, excluding module from filtered results",
				"name", bp.Name(), "err", err)
		}
		return caps, err
	}
}

type capEntry struct {
	once sync.Once
	caps Capabilities
	err  error
}

// CapabilityCache memoizes capabilities per blueprint identity. An entry is
// written once and never changed. Keys are weak, so the cache does not keep
// blueprints alive; the entry of a collected blueprint is dropped.
type CapabilityCache struct {
	extract CapabilityExtractor
	entries sync.Map // weak.Pointer[blueprint.Blueprint] -> *capEntry
}

// NewCapabilityCache returns a cache computing missing entries with extract.
func NewCapabilityCache(extract CapabilityExtractor) *CapabilityCache {
	return &CapabilityCache{extract: extract}
}

// Get returns the capabilities of bp, extracting them on first use.
// Concurrent first calls for one blueprint extract once. A failed
// extraction is cached too.
func (c *CapabilityCache) Get(bp *blueprint.Blueprint) (Capabilities, error) {
	key := weak.Make(bp)
	v, loaded := c.entries.LoadOrStore(key, &capEntry{})
	if !loaded {
		runtime.AddCleanup(bp, func(k weak.Pointer[blueprint.Blueprint]) {
			c.entries.Delete(k)
		}, key)
	}

	e := v.(*capEntry)
	e.once.Do(func() {
		e.caps, e.err = c.extract(bp)
	})
	return Capabilities{
		Architectures: slices.Clone(e.caps.Architectures),
		Platforms:     slices.Clone(e.caps.Platforms),
	}, e.err
}

// Cached reports whether an entry exists for bp.
func (c *CapabilityCache) Cached(bp *blueprint.Blueprint) bool {
	_, ok := c.entries.Load(weak.Make(bp))
	return ok
}

// Forget drops the entry for bp. Reload hooks use it to release the entry
// of a replaced blueprint without waiting for garbage collection.
func (c *CapabilityCache) Forget(bp *blueprint.Blueprint) {
	c.entries.Delete(weak.Make(bp))
}

// Len returns the number of cached entries.
func (c *CapabilityCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
