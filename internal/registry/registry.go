package registry

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// Registrar accepts blueprints produced by a Loader.
type Registrar interface {
	Register(bp *blueprint.Blueprint) *blueprint.Blueprint
}

// Loader locates and parses the blueprint for a name. On success it calls
// reg.Register exactly once and returns true. It returns false with a nil
// error when it has no definition for the name.
type Loader interface {
	DemandLoad(reg Registrar, moduleType, name string) (bool, error)
}

// Stats summarizes the registry contents.
type Stats struct {
	Known     int
	Resolved  int
	Ambiguous int
}

// Option configures a Registry.
type Option func(*Registry)

// WithFactory sets the factory used to instantiate modules.
func WithFactory(f Factory) Option {
	return func(r *Registry) { r.factory = f }
}

// WithNotifier sets the notifier that receives created instances.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithPredicate adds a custom predicate applied after the architecture and
// platform checks of every filtered enumeration.
func WithPredicate(p Predicate) Option {
	return func(r *Registry) { r.predicate = p }
}

// WithReloadHook sets the function called after a resolved blueprint was
// replaced by Reload. It receives the new blueprint.
func WithReloadHook(fn func(bp *blueprint.Blueprint)) Option {
	return func(r *Registry) { r.onReload = fn }
}

// WithRecalculateHook sets a function called whenever the registry content
// changes and derived views are invalidated.
func WithRecalculateHook(fn func()) Option {
	return func(r *Registry) { r.onRecalculate = fn }
}

// WithCapabilityExtractor replaces the default extractor, which instantiates
// the module and asks it for its capabilities.
func WithCapabilityExtractor(fn CapabilityExtractor) Option {
	return func(r *Registry) { r.extractor = fn }
}

// Registry maps module names to their load state. A registry holds one
// module type, or every type when created with an empty type.
type Registry struct {
	moduleType    string
	loader        Loader
	factory       Factory
	notifier      Notifier
	logger        *log.Logger
	predicate     Predicate
	extractor     CapabilityExtractor
	onReload      func(bp *blueprint.Blueprint)
	onRecalculate func()

	mu         sync.RWMutex
	entries    map[string]LoadState
	generation uint64

	flight    singleflight.Group
	ambiguity *AmbiguityTracker
	caps      *CapabilityCache
	filters   *FilterEngine
	ranking   *RankingEngine
	sorted    viewCache
}

// New creates a registry for moduleType backed by loader. An empty
// moduleType makes the registry type-agnostic. loader may be nil for a
// registry that is only ever populated through Register.
func New(moduleType string, loader Loader, opts ...Option) *Registry {
	r := &Registry{
		moduleType: moduleType,
		loader:     loader,
		factory:    DefaultFactory,
		notifier:   nopNotifier{},
		logger:     log.New(io.Discard),
		entries:    make(map[string]LoadState),
		ambiguity:  NewAmbiguityTracker(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.extractor == nil {
		r.extractor = r.instanceCapabilities
	}
	r.caps = NewCapabilityCache(r.logExtractFailures(r.extractor))
	r.filters = NewFilterEngine(r.caps, r.predicate)
	r.ranking = NewRankingEngine()
	return r
}

// ModuleType returns the type held by the registry, or "" if type-agnostic.
func (r *Registry) ModuleType() string {
	return r.moduleType
}

// types returns the module types tried when demand loading a name.
func (r *Registry) types() []string {
	if r.moduleType != "" {
		return []string{r.moduleType}
	}
	return blueprint.ValidTypes()
}

// Add records name as known but not yet loaded. It returns false if the
// name is already present.
func (r *Registry) Add(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return false
	}
	r.entries[name] = Unresolved()
	r.generation++
	return true
}

// Register stores bp under its name. The first resolved blueprint for a
// name wins: a later, different blueprint is not adopted but recorded as an
// ambiguity, and the original is returned.
func (r *Registry) Register(bp *blueprint.Blueprint) *blueprint.Blueprint {
	if bp == nil {
		panic("registry: Register called with nil blueprint")
	}
	name := bp.Name()

	r.mu.Lock()
	if existing, ok := r.entries[name].Blueprint(); ok {
		r.mu.Unlock()
		if existing != bp && !blueprint.Equal(existing, bp) {
			r.ambiguity.Record(name, existing, bp)
			r.logger.Warn("ambiguous module name, keeping first registration",
				"name", name, "kept", existing.SourcePath(), "rejected", bp.SourcePath())
		}
		return existing
	}
	r.entries[name] = Resolved(bp)
	r.generation++
	r.mu.Unlock()

	r.recalculate()
	return bp
}

// recalculate runs the recalculation hook. Views compare generations and
// rebuild themselves lazily.
func (r *Registry) recalculate() {
	if r.onRecalculate != nil {
		r.onRecalculate()
	}
}

// lookup returns the resolved blueprint for name without loading.
func (r *Registry) lookup(name string) (*blueprint.Blueprint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name].Blueprint()
}

// State returns the load state of name without triggering a load.
func (r *Registry) State(name string) (LoadState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.entries[name]
	return s, ok
}

// Names returns a lexically sorted snapshot of every known name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of known names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stats returns counts of known, resolved and ambiguous names.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	stats := Stats{Known: len(r.entries)}
	for _, s := range r.entries {
		if s.IsResolved() {
			stats.Resolved++
		}
	}
	r.mu.RUnlock()

	stats.Ambiguous = r.ambiguity.Len()
	return stats
}

// AmbiguousNames returns, sorted, every name for which a second distinct
// blueprint was presented.
func (r *Registry) AmbiguousNames() []string {
	return r.ambiguity.Names()
}

// Collisions returns the recorded collisions for name.
func (r *Registry) Collisions(name string) []Collision {
	return r.ambiguity.Collisions(name)
}

// Capabilities returns the capability cache backing filtered enumeration.
func (r *Registry) Capabilities() *CapabilityCache {
	return r.caps
}

// currentGeneration returns the content version used by cached views.
func (r *Registry) currentGeneration() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// String implements fmt.Stringer.
func (r *Registry) String() string {
	t := r.moduleType
	if t == "" {
		t = "all"
	}
	return fmt.Sprintf("registry(%s, %d modules)", t, r.Len())
}
