package tunekit

import (
	"fmt"

	"github.com/tunekit/tunekit/pkg/tunekit/config"
)

// Assembly is a fully wired agent: the connector group built from an
// agent configuration file, plus the optimizer descriptor shared by its
// members.
type Assembly struct {
	group     *Group
	optimizer *Optimizer
}

// Assemble builds an assembly from a parsed agent file. Each connector
// entry resolves against the type registry (explicit type first, then the
// entry name), is instantiated with its settings stanza and the
// optimizer, and joins the group in file order.
func Assemble(f *config.File) (*Assembly, error) {
	if f == nil {
		return nil, fmt.Errorf("tunekit: agent file cannot be nil")
	}

	var optimizer *Optimizer
	if oc := f.Optimizer(); oc.ID != "" {
		var opts []OptimizerOption
		if oc.BaseURL != "" {
			opts = append(opts, WithBaseURL(oc.BaseURL))
		}
		var err error
		if optimizer, err = NewOptimizer(oc.ID, oc.Token, opts...); err != nil {
			return nil, err
		}
	}

	entries := f.Connectors()
	members := make([]*Connector, 0, len(entries))
	for _, entry := range entries {
		symbol := entry.Type
		if symbol == "" {
			symbol = entry.Name
		}
		typ, err := LookupType(symbol)
		if err != nil {
			return nil, fmt.Errorf("tunekit: connector %q: %w", entry.Name, err)
		}

		opts := []ConnectorOption{
			WithName(entry.Name),
			WithConfig(f.ConnectorConfig(entry.Name)),
		}
		if optimizer != nil {
			opts = append(opts, WithOptimizer(optimizer))
		}
		c, err := typ.New(opts...)
		if err != nil {
			return nil, err
		}
		members = append(members, c)
	}

	g, err := NewGroup(members...)
	if err != nil {
		return nil, err
	}
	return &Assembly{group: g, optimizer: optimizer}, nil
}

// AssembleFile loads an agent configuration file and assembles it.
func AssembleFile(path string) (*Assembly, error) {
	f, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Assemble(f)
}

// Group returns the assembled connector group.
func (a *Assembly) Group() *Group {
	return a.group
}

// Optimizer returns the shared optimizer descriptor, or nil when the
// agent file declared none.
func (a *Assembly) Optimizer() *Optimizer {
	return a.optimizer
}

// Connector returns the named member connector, if present.
func (a *Assembly) Connector(name string) (*Connector, bool) {
	return a.group.Member(name)
}

// Shutdown dissolves the assembly's group membership associations.
func (a *Assembly) Shutdown() {
	a.group.Dissolve()
}
