package registry

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/agentx-labs/modreg/internal/blueprint"
)

// Collision records a blueprint that was presented under a name already
// held by a different blueprint.
type Collision struct {
	Name     string
	Kept     *blueprint.Blueprint
	Rejected *blueprint.Blueprint
	At       time.Time
}

// AmbiguityTracker is the audit trail of name collisions. Nothing is ever
// removed from it; the first registration keeps the name and collisions
// have to be fixed at the sources.
type AmbiguityTracker struct {
	mu         sync.Mutex
	collisions map[string][]Collision
}

// NewAmbiguityTracker returns an empty tracker.
func NewAmbiguityTracker() *AmbiguityTracker {
	return &AmbiguityTracker{collisions: make(map[string][]Collision)}
}

// Record notes that rejected arrived under name while kept holds it. The
// same rejected definition presented again is recorded once.
func (t *AmbiguityTracker) Record(name string, kept, rejected *blueprint.Blueprint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.collisions[name] {
		if blueprint.Equal(c.Rejected, rejected) {
			return
		}
	}
	t.collisions[name] = append(t.collisions[name], Collision{
		Name:     name,
		Kept:     kept,
		Rejected: rejected,
		At:       time.Now(),
	})
}

// Names returns the ambiguous names, sorted.
func (t *AmbiguityTracker) Names() []string {
	t.mu.Lock()
	names := make([]string, 0, len(t.collisions))
	for name := range t.collisions {
		names = append(names, name)
	}
	t.mu.Unlock()

	sort.Strings(names)
	return names
}

// Collisions returns the collisions recorded for name, oldest first.
func (t *AmbiguityTracker) Collisions(name string) []Collision {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.collisions[name])
}

// Contains reports whether name is ambiguous.
func (t *AmbiguityTracker) Contains(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.collisions[name]
	return ok
}

// Len returns the number of ambiguous names.
func (t *AmbiguityTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.collisions)
}
