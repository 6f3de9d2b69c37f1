package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/charmbracelet/log"
)

// Reloader is the part of a registry that Refresh updates.
type Reloader interface {
	registry.Registrar
	ModuleType() string
	State(name string) (registry.LoadState, bool)
	Add(name string) bool
	Reload(bp *blueprint.Blueprint) bool
}

// Option configures an FSLoader.
type Option func(*FSLoader)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(f *FSLoader) { f.logger = l }
}

// WithIndex makes Candidates read discovery results through the index
// file at path.
func WithIndex(path string) Option {
	return func(f *FSLoader) { f.indexPath = path }
}

// FSLoader loads blueprints from manifest files in an ordered list of
// sources. It implements registry.Loader.
type FSLoader struct {
	sources   []Source
	logger    *log.Logger
	indexPath string
}

// New returns a loader searching sources in order; the first source has the
// highest priority.
func New(sources []Source, opts ...Option) *FSLoader {
	l := &FSLoader{
		sources: slices.Clone(sources),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sources returns the configured sources in priority order.
func (l *FSLoader) Sources() []Source {
	return slices.Clone(l.sources)
}

// discover returns every candidate, through the index when configured.
func (l *FSLoader) discover() ([]Candidate, error) {
	if l.indexPath != "" {
		return DiscoverCached(l.sources, l.indexPath)
	}
	return DiscoverAll(l.sources)
}

// Candidates returns the sorted, deduplicated names available for
// moduleType, or for every type when moduleType is empty. Nothing is
// parsed.
func (l *FSLoader) Candidates(moduleType string) ([]string, error) {
	all, err := l.discover()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, c := range FilterType(all, moduleType) {
		names = append(names, c.Name)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Seed adds an unresolved placeholder to reg for every candidate name and
// returns how many were new.
func (l *FSLoader) Seed(reg interface{ Add(name string) bool }, moduleType string) (int, error) {
	names, err := l.Candidates(moduleType)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, name := range names {
		if reg.Add(name) {
			added++
		}
	}
	l.logger.Debug("seeded placeholders", "type", moduleType, "count", added)
	return added, nil
}

// DemandLoad finds the highest priority manifest for moduleType and name,
// loads it and registers the blueprint. It reports false with a nil error
// when no source has the module.
func (l *FSLoader) DemandLoad(reg registry.Registrar, moduleType, name string) (bool, error) {
	c, err := Locate(l.sources, moduleType, name)
	if errors.Is(err, ErrNoManifest) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	bp, err := l.loadCandidate(c)
	if err != nil {
		return false, err
	}
	reg.Register(bp)
	return true, nil
}

// Preload registers the blueprint of every candidate in every source,
// shadowed ones included, so that name collisions between sources are
// recorded by the registry. It returns the number of manifests loaded;
// failures are joined and do not stop the walk.
func (l *FSLoader) Preload(reg registry.Registrar, moduleType string) (int, error) {
	all, err := l.discover()
	if err != nil {
		return 0, err
	}

	var errs []error
	loaded := 0
	for _, c := range FilterType(all, moduleType) {
		bp, err := l.loadCandidate(c)
		if err != nil {
			l.logger.Warn("skipping manifest", "path", c.Path, "err", err)
			errs = append(errs, err)
			continue
		}
		reg.Register(bp)
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// loadCandidate parses the manifest of c and checks that it declares the
// type of the directory it lives in.
func (l *FSLoader) loadCandidate(c Candidate) (*blueprint.Blueprint, error) {
	bp, err := blueprint.Load(c.Path, c.Name)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", c.Source, err)
	}
	if bp.Type() != c.Type {
		return nil, fmt.Errorf("source %s: %s declares type %q but is under %s/: %w",
			c.Source, c.Path, bp.Type(), blueprint.TypeDir(c.Type), blueprint.ErrInvalidManifest)
	}
	return bp, nil
}

// Refresh re-reads the manifest at path after it changed on disk. A
// resolved module is reloaded in reg; an unknown one becomes a placeholder.
// Manifests shadowed by a higher priority source, of another type than
// reg, or outside every source are ignored, as are deletions.
func (l *FSLoader) Refresh(reg Reloader, path string) error {
	c, ok := Classify(l.sources, path)
	if !ok {
		return nil
	}
	if t := reg.ModuleType(); t != "" && t != c.Type {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		l.logger.Debug("manifest removed, keeping registry entry", "path", path)
		return nil
	}
	if winner, err := Locate(l.sources, c.Type, c.Name); err == nil && winner.Path != path {
		l.logger.Debug("ignoring shadowed manifest", "path", path, "winner", winner.Path)
		return nil
	}

	state, known := reg.State(c.Name)
	switch {
	case !known:
		reg.Add(c.Name)
		l.logger.Info("new module", "name", c.Name, "type", c.Type)
		return nil
	case !state.IsResolved():
		return nil
	}

	bp, err := l.loadCandidate(c)
	if err != nil {
		return err
	}
	reg.Reload(bp)
	return nil
}
