package registry

import (
	"errors"
	"fmt"

	"github.com/agentx-labs/modreg/internal/blueprint"
)

// load returns the resolved blueprint for name, demand loading it when
// needed. Concurrent loads of one name share a single loader invocation.
func (r *Registry) load(name string) (*blueprint.Blueprint, error) {
	if bp, ok := r.lookup(name); ok {
		return bp, nil
	}

	v, err, _ := r.flight.Do(name, func() (any, error) {
		// Another flight may have finished between lookup and Do.
		if bp, ok := r.lookup(name); ok {
			return bp, nil
		}
		return r.demandLoad(name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*blueprint.Blueprint), nil
}

// demandLoad asks the loader for name, trying each type of the registry in
// order until one succeeds.
func (r *Registry) demandLoad(name string) (*blueprint.Blueprint, error) {
	if r.loader == nil {
		return nil, ErrNotFound
	}

	var errs []error
	for _, moduleType := range r.types() {
		ok, err := r.loader.DemandLoad(r, moduleType, name)
		if err != nil {
			r.logger.Warn("demand load failed", "name", name, "type", moduleType, "err", err)
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}

		bp, resolved := r.lookup(name)
		if !resolved {
			panic(fmt.Sprintf("registry: loader reported %s %q as loaded but registered no blueprint under that name", moduleType, name))
		}
		r.logger.Debug("demand loaded module", "name", name, "type", moduleType, "source", bp.SourcePath())
		return bp, nil
	}

	if len(errs) > 0 {
		return nil, &LoadError{Name: name, Err: errors.Join(errs...)}
	}
	return nil, ErrNotFound
}

// Get returns the blueprint for name, demand loading it if it is still
// unresolved or unknown. It never instantiates a module.
func (r *Registry) Get(name string) (*blueprint.Blueprint, bool) {
	bp, err := r.load(name)
	if err != nil {
		return nil, false
	}
	return bp, true
}

// Lookup is Get with the failure reason: ErrNotFound, or a *LoadError when
// the loader failed.
func (r *Registry) Lookup(name string) (*blueprint.Blueprint, error) {
	return r.load(name)
}

// Resolve demand loads name if needed, creates a fresh module from its
// blueprint and notifies the notifier. A name nobody can provide yields an
// error matching ErrNotFound; a blueprint that cannot be instantiated
// yields an *InstantiationError.
func (r *Registry) Resolve(name string) (Module, error) {
	bp, err := r.load(name)
	if err != nil {
		return nil, err
	}

	m, err := r.factory.Instantiate(bp)
	if err != nil {
		return nil, &InstantiationError{Name: name, Err: err}
	}
	r.notify(m)
	return m, nil
}

// IsValid reports whether name resolves to a usable module. The check
// leaves the blueprint cached, so it doubles as a warm-up.
func (r *Registry) IsValid(name string) bool {
	_, err := r.Resolve(name)
	return err == nil
}

// ForceLoadAll resolves every unresolved entry in lexical order. Failures
// are logged by the load path and otherwise ignored.
func (r *Registry) ForceLoadAll() {
	for _, name := range r.unresolvedNames() {
		_, _ = r.load(name)
	}
}

// unresolvedNames returns a sorted snapshot of the placeholder names.
func (r *Registry) unresolvedNames() []string {
	var names []string
	for _, name := range r.Names() {
		if s, ok := r.State(name); ok && !s.IsResolved() {
			names = append(names, name)
		}
	}
	return names
}

// Reload replaces the resolved blueprint stored under bp's name with bp and
// invokes the reload hook. It returns false, changing nothing, when the name
// is not resolved; an unresolved name picks up the new definition on its
// first load anyway.
func (r *Registry) Reload(bp *blueprint.Blueprint) bool {
	if bp == nil {
		panic("registry: Reload called with nil blueprint")
	}
	name := bp.Name()

	r.mu.Lock()
	old, ok := r.entries[name].Blueprint()
	if !ok {
		r.mu.Unlock()
		return false
	}
	if blueprint.Equal(old, bp) {
		r.mu.Unlock()
		return true
	}
	r.entries[name] = Resolved(bp)
	r.generation++
	r.mu.Unlock()

	r.logger.Info("module reloaded", "name", name,
		"from", old.Version(), "to", bp.Version(), "upgrade", bp.Newer(old))

	r.recalculate()
	if r.onReload != nil {
		r.onReload(bp)
	}
	return true
}
