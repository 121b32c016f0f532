package tunekit

import (
	"fmt"
	"sync"
)

// Group is the ordered set of sibling connectors dispatched together.
// Membership is established once at construction and looked up through an
// identity-keyed side table, never embedded in a connector's own state,
// so a connector's serializable configuration stays free of runtime
// wiring. The side table is mutated only at construction and teardown,
// never concurrently with dispatch.
type Group struct {
	members []*Connector
}

var groupTable = struct {
	mu sync.Mutex
	m  map[*Connector]*Group
}{m: make(map[*Connector]*Group)}

// NewGroup builds a group from the given connectors, in order, and
// associates each member with it. Building a group containing a connector
// that already belongs to another group replaces that association.
// Member names must be unique within the group.
func NewGroup(members ...*Connector) (*Group, error) {
	seen := make(map[string]struct{}, len(members))
	for _, c := range members {
		if c == nil {
			return nil, fmt.Errorf("tunekit: group member cannot be nil")
		}
		if _, dup := seen[c.name]; dup {
			return nil, fmt.Errorf("tunekit: duplicate connector name %q in group", c.name)
		}
		seen[c.name] = struct{}{}
	}

	g := &Group{members: make([]*Connector, len(members))}
	copy(g.members, members)

	groupTable.mu.Lock()
	for _, c := range g.members {
		groupTable.m[c] = g
	}
	groupTable.mu.Unlock()

	return g, nil
}

// MustNewGroup builds a group, panicking on error.
func MustNewGroup(members ...*Connector) *Group {
	g, err := NewGroup(members...)
	if err != nil {
		panic(err)
	}
	return g
}

// Members returns the group's connectors in dispatch order.
func (g *Group) Members() []*Connector {
	members := make([]*Connector, len(g.members))
	copy(members, g.members)
	return members
}

// Member returns the named connector, if present.
func (g *Group) Member(name string) (*Connector, bool) {
	for _, c := range g.members {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Len returns the number of members.
func (g *Group) Len() int {
	return len(g.members)
}

// Dissolve tears down the group's membership associations. Members whose
// association was already replaced by a newer group are left untouched.
func (g *Group) Dissolve() {
	groupTable.mu.Lock()
	for _, c := range g.members {
		if groupTable.m[c] == g {
			delete(groupTable.m, c)
		}
	}
	groupTable.mu.Unlock()
}

// GroupOf returns the group a connector currently belongs to.
func GroupOf(c *Connector) (*Group, bool) {
	groupTable.mu.Lock()
	g, ok := groupTable.m[c]
	groupTable.mu.Unlock()
	return g, ok
}
