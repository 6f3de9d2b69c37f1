package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/google/uuid"
)

// Module is a live instance created from a blueprint. What a module does
// once running is outside the registry; it only needs identity and the
// capabilities used for filtering.
type Module interface {
	ID() string
	Name() string
	Type() string
	Blueprint() *blueprint.Blueprint
	Architectures() []string
	Platforms() []string
	CreatedAt() time.Time
}

// Factory turns a resolved blueprint into a live module.
type Factory interface {
	Instantiate(bp *blueprint.Blueprint) (Module, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(bp *blueprint.Blueprint) (Module, error)

// Instantiate calls f(bp).
func (f FactoryFunc) Instantiate(bp *blueprint.Blueprint) (Module, error) {
	return f(bp)
}

// Instance is the default Module: a blueprint plus a unique instance ID.
type Instance struct {
	id        string
	bp        *blueprint.Blueprint
	createdAt time.Time
}

// ID returns the unique instance identifier.
func (i *Instance) ID() string { return i.id }

// Name returns the module name.
func (i *Instance) Name() string { return i.bp.Name() }

// Type returns the module type.
func (i *Instance) Type() string { return i.bp.Type() }

// Blueprint returns the blueprint the instance was created from.
func (i *Instance) Blueprint() *blueprint.Blueprint { return i.bp }

// Architectures returns the architectures the instance supports.
func (i *Instance) Architectures() []string { return i.bp.Architectures() }

// Platforms returns the platforms the instance supports.
func (i *Instance) Platforms() []string { return i.bp.Platforms() }

// CreatedAt returns when the instance was created.
func (i *Instance) CreatedAt() time.Time { return i.createdAt }

// errMalformed is wrapped by the default factory for unusable blueprints.
var errMalformed = errors.New("malformed blueprint")

// DefaultFactory creates Instance values. It rejects blueprints that could
// not have come from blueprint.New, and versions that are not semver.
var DefaultFactory Factory = FactoryFunc(newInstance)

func newInstance(bp *blueprint.Blueprint) (Module, error) {
	if bp == nil {
		return nil, fmt.Errorf("%w: nil", errMalformed)
	}
	if bp.Name() == "" {
		return nil, fmt.Errorf("%w: empty name", errMalformed)
	}
	if !blueprint.IsValidType(bp.Type()) {
		return nil, fmt.Errorf("%w: unknown type %q", errMalformed, bp.Type())
	}
	if v := bp.Version(); v != "" {
		if _, err := blueprint.ParseVersion(v); err != nil {
			return nil, fmt.Errorf("%w: version %q: %v", errMalformed, v, err)
		}
	}
	return &Instance{
		id:        uuid.NewString(),
		bp:        bp,
		createdAt: time.Now(),
	}, nil
}
