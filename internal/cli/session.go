package cli

import (
	"fmt"
	"path/filepath"

	"github.com/agentx-labs/modreg/internal/catalog"
	"github.com/agentx-labs/modreg/internal/config"
	"github.com/agentx-labs/modreg/internal/loader"
	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/google/uuid"
)

// session bundles the loader and registry a command works against.
type session struct {
	loader   *loader.FSLoader
	registry *registry.Registry
}

// usesCatalog reports whether no explicit source is configured, so the
// catalog checkout is the only source.
func usesCatalog() bool {
	return len(sourceArgs) == 0 && (settings == nil || len(settings.Sources) == 0)
}

// resolveSources returns the sources in priority order: --source flags,
// then the config file, then the catalog checkout.
func resolveSources(args []string, s *config.Settings) ([]loader.Source, error) {
	var sources []loader.Source
	for _, arg := range args {
		src, err := loader.ParseSource(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) > 0 {
		return sources, nil
	}

	if s != nil {
		for _, sc := range s.Sources {
			name := sc.Name
			if name == "" {
				name = filepath.Base(filepath.Clean(sc.Path))
			}
			abs, err := filepath.Abs(sc.Path)
			if err != nil {
				return nil, fmt.Errorf("resolving source %s: %w", name, err)
			}
			sources = append(sources, loader.Source{Name: name, BasePath: abs})
		}
	}
	if len(sources) > 0 {
		return sources, nil
	}

	dir := ""
	if s != nil {
		dir = s.Catalog.Dir
	}
	if dir == "" {
		dir = filepath.Join(config.Dir(), "catalog")
	}
	return []loader.Source{catalog.Source(dir)}, nil
}

// openSession builds the loader and a registry for the selected module
// type. Known names are seeded as placeholders; with eager loading every
// manifest is parsed up front.
func openSession(opts ...registry.Option) (*session, error) {
	sources, err := resolveSources(sourceArgs, settings)
	if err != nil {
		return nil, err
	}

	loaderOpts := []loader.Option{loader.WithLogger(logger)}
	if settings != nil && settings.IndexCache {
		path, err := indexPathFor(sources)
		if err != nil {
			return nil, err
		}
		loaderOpts = append(loaderOpts, loader.WithIndex(path))
	}
	l := loader.New(sources, loaderOpts...)

	opts = append([]registry.Option{
		registry.WithLogger(logger),
		registry.WithNotifier(registry.LogNotifier(logger)),
	}, opts...)
	reg := registry.New(moduleType, l, opts...)

	if settings != nil && settings.Eager {
		n, err := l.Preload(reg, moduleType)
		if err != nil {
			logger.Warn("some manifests failed to load", "err", err)
		}
		logger.Debug("preloaded manifests", "count", n)
	} else if _, err := l.Seed(reg, moduleType); err != nil {
		return nil, fmt.Errorf("discovering modules: %w", err)
	}
	return &session{loader: l, registry: reg}, nil
}

// indexPathFor keeps one index file per source list so switching between
// --source sets does not thrash a shared cache.
func indexPathFor(sources []loader.Source) (string, error) {
	path, err := loader.DefaultIndexPath()
	if err != nil {
		return "", err
	}
	if len(sources) == 1 && sources[0].Name == catalog.SourceName {
		return path, nil
	}
	key := ""
	for _, src := range sources {
		key += src.Name + "=" + src.BasePath + ";"
	}
	return filepath.Join(filepath.Dir(path), "index", uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()+".json"), nil
}
