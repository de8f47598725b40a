package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func visPtr(v Visibility) *Visibility { return &v }

func uint32Ptr(u uint32) *uint32 { return &u }

func strPtr(s string) *string { return &s }

func sampleFile() *File {
	upper := uint32(5)

	return &File{
		FileID:       "f1",
		Name:         "Demo",
		CreatedAt:    1700000000,
		LastModified: 1700000100,
		Classes: []Class{
			{
				ID:   "c1",
				Name: "Foo",
				Attributes: []Variable{
					{Name: "x", Type: "int", Visibility: visPtr(VisibilityPrivate)},
					{Name: "y", Type: "string", IsStatic: boolPtr(true)},
				},
				Methods: []Method{
					{
						Name:       "run",
						ReturnType: "void",
						Visibility: VisibilityPublic,
						IsAbstract: boolPtr(false),
						Parameters: []Variable{
							{Name: "count", Type: "int"},
						},
					},
				},
				Relations: []RelationInfo{
					{
						TargetClassID: "c2",
						Relation:      RelationComposition,
						MultiplicityP: &Multiplicity{Lower: 1, Upper: &upper},
						MultiplicityC: &Multiplicity{Lower: 0},
						RoleNameP:     strPtr("owner"),
					},
				},
			},
			{ID: "c2", Name: "Bar"},
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := sampleFile()
	clone := original.Clone()

	require.True(t, original.Equal(clone))

	// Mutating the clone must not leak into the original.
	clone.Name = "changed"
	clone.Classes[0].Attributes[0].Name = "z"
	*clone.Classes[0].Attributes[0].Visibility = VisibilityPublic
	*clone.Classes[0].Methods[0].IsAbstract = true
	*clone.Classes[0].Relations[0].MultiplicityP.Upper = 99
	*clone.Classes[0].Relations[0].RoleNameP = "renamed"

	assert.Equal(t, "Demo", original.Name)
	assert.Equal(t, "x", original.Classes[0].Attributes[0].Name)
	assert.Equal(t, VisibilityPrivate, *original.Classes[0].Attributes[0].Visibility)
	assert.False(t, *original.Classes[0].Methods[0].IsAbstract)
	assert.Equal(t, uint32(5), *original.Classes[0].Relations[0].MultiplicityP.Upper)
	assert.Equal(t, "owner", *original.Classes[0].Relations[0].RoleNameP)
}

func TestCloneNil(t *testing.T) {
	t.Parallel()

	var f *File
	assert.Nil(t, f.Clone())
}

func TestEqualOptionalPresence(t *testing.T) {
	t.Parallel()

	a := sampleFile()
	b := sampleFile()
	require.True(t, a.Equal(b))

	// An absent flag is not the same as a false flag.
	b.Classes[0].Attributes[1].IsStatic = nil
	assert.False(t, a.Equal(b))

	b = sampleFile()
	b.Classes[0].Attributes[1].IsStatic = boolPtr(false)
	assert.False(t, a.Equal(b))

	// An unbounded upper multiplicity differs from upper 5.
	b = sampleFile()
	b.Classes[0].Relations[0].MultiplicityP.Upper = nil
	assert.False(t, a.Equal(b))

	// Absent visibility differs from an explicit NON_MODIFIER.
	b = sampleFile()
	b.Classes[0].Attributes[1].Visibility = visPtr(VisibilityNonModifier)
	assert.False(t, a.Equal(b))
}

func TestEqualRelationsPresence(t *testing.T) {
	t.Parallel()

	a := sampleFile()
	b := sampleFile()

	// A class without any relation list differs from one with an
	// empty list.
	a.Classes[1].Relations = nil
	b.Classes[1].Relations = []RelationInfo{}
	assert.False(t, a.Equal(b))

	b.Classes[1].Relations = nil
	assert.True(t, a.Equal(b))
}

func TestEqualRequiredSequencesNilVsEmpty(t *testing.T) {
	t.Parallel()

	a := &File{FileID: "f", Classes: nil}
	b := &File{FileID: "f", Classes: []Class{}}

	// Classes is a required sequence, nil and empty are the same
	// document.
	assert.True(t, a.Equal(b))
}
