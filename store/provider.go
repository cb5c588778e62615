package store

import (
	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
)

// Provider offers container contents to the blueprint resolver as
// zero-dependency constructors.
type Provider struct {
	container *Container
}

// NewProvider creates a Provider backed by c.
func NewProvider(c *Container) *Provider {
	return &Provider{container: c}
}

// ProvideFor yields exactly one constructor wrapping the stored value for
// key, or nothing. Absence and ambiguity are silent. Values tagged with a
// ProvidedBy attribute were produced by another provider's constructor and
// are not re-offered as raw instances.
func (p *Provider) ProvideFor(key keys.Key) []blueprint.Constructor {
	var candidates []*Instance
	for _, inst := range p.container.GetAllWrappers(key) {
		if _, provided := inst.Key().Attributes().Get(keys.AttrProvidedBy); provided {
			continue
		}
		candidates = append(candidates, inst)
	}

	var inst *Instance
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		inst = candidates[0]
	default:
		for _, c := range candidates {
			if c.IsPrimary() {
				inst = c
				break
			}
		}
		if inst == nil {
			return nil
		}
	}
	return []blueprint.Constructor{{
		Source:       p.container.String() + "::" + inst.Name(),
		Call:         blueprint.Static(inst.Value()),
		IsAsync:      false,
		IsOptional:   false,
		Output:       key,
		Dependencies: nil,
	}}
}
