package tunekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groupFixture registers a throwaway type and instantiates named members
// for group tests.
func groupFixture(t *testing.T, typeName string, names ...string) []*Connector {
	t.Helper()
	typ := MustRegisterType(NewConnectorType(typeName))
	members := make([]*Connector, len(names))
	for i, name := range names {
		members[i] = typ.MustNew(WithName(name))
	}
	return members
}

func TestNewGroup_PreservesOrder(t *testing.T) {
	members := groupFixture(t, "GroupOrderConnector", "first", "second", "third")

	g, err := NewGroup(members...)
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())

	got := g.Members()
	assert.Equal(t, "first", got[0].Name())
	assert.Equal(t, "second", got[1].Name())
	assert.Equal(t, "third", got[2].Name())
}

func TestNewGroup_NilMember_Fails(t *testing.T) {
	members := groupFixture(t, "GroupNilConnector", "only")

	_, err := NewGroup(members[0], nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be nil")
}

func TestNewGroup_DuplicateName_Fails(t *testing.T) {
	typ := MustRegisterType(NewConnectorType("GroupDupConnector"))
	a := typ.MustNew(WithName("same"))
	b := typ.MustNew(WithName("same"))

	_, err := NewGroup(a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate connector name")
}

func TestGroup_Member(t *testing.T) {
	members := groupFixture(t, "GroupMemberConnector", "alpha", "beta")
	g := MustNewGroup(members...)

	c, ok := g.Member("beta")
	require.True(t, ok)
	assert.Same(t, members[1], c)

	_, ok = g.Member("gamma")
	assert.False(t, ok)
}

func TestGroupOf_Association(t *testing.T) {
	members := groupFixture(t, "GroupAssocConnector", "assoc_a", "assoc_b")
	g := MustNewGroup(members...)

	for _, c := range members {
		got, ok := GroupOf(c)
		require.True(t, ok)
		assert.Same(t, g, got)
	}
}

func TestGroupOf_NoGroup(t *testing.T) {
	typ := MustRegisterType(NewConnectorType("GroupLonerConnector"))
	c := typ.MustNew()

	_, ok := GroupOf(c)
	assert.False(t, ok)
}

// TestNewGroup_ReplacesAssociation verifies that regrouping a connector
// points its association at the newest group.
func TestNewGroup_ReplacesAssociation(t *testing.T) {
	members := groupFixture(t, "GroupRegroupConnector", "movable")
	old := MustNewGroup(members...)
	_ = old

	newer := MustNewGroup(members...)
	got, ok := GroupOf(members[0])
	require.True(t, ok)
	assert.Same(t, newer, got)
}

func TestDissolve_ClearsAssociations(t *testing.T) {
	members := groupFixture(t, "GroupDissolveConnector", "ephemeral")
	g := MustNewGroup(members...)

	g.Dissolve()
	_, ok := GroupOf(members[0])
	assert.False(t, ok)
}

// TestDissolve_LeavesNewerAssociation verifies that dissolving a stale
// group does not disturb a member's newer association.
func TestDissolve_LeavesNewerAssociation(t *testing.T) {
	members := groupFixture(t, "GroupStaleConnector", "contested")
	old := MustNewGroup(members...)
	newer := MustNewGroup(members...)

	old.Dissolve()

	got, ok := GroupOf(members[0])
	require.True(t, ok)
	assert.Same(t, newer, got)
}

func TestGroup_MembersReturnsCopy(t *testing.T) {
	members := groupFixture(t, "GroupCopyConnector", "shielded")
	g := MustNewGroup(members...)

	got := g.Members()
	got[0] = nil
	assert.NotNil(t, g.Members()[0])
}
