package engine

import (
	"encoding/binary"
	"testing"

	"diagramdb/src/models"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func visPtr(v models.Visibility) *models.Visibility { return &v }

func strPtr(s string) *string { return &s }

func testFile(id string) *models.File {
	upper := uint32(3)

	return &models.File{
		FileID:       id,
		Name:         "Diagram " + id,
		CreatedAt:    1700000000,
		LastModified: 1700000200,
		Classes: []models.Class{
			{
				ID:   "c1",
				Name: "Widget",
				Attributes: []models.Variable{
					{Name: "size", Type: "int", Visibility: visPtr(models.VisibilityPrivate)},
					{Name: "label", Type: "string", IsStatic: boolPtr(false)},
					{Name: "hint", Type: "string"}, // no modifier, no flag
				},
				Methods: []models.Method{
					{
						Name:       "render",
						ReturnType: "void",
						Visibility: models.VisibilityPublic,
						IsAbstract: boolPtr(true),
						Parameters: []models.Variable{
							{Name: "depth", Type: "int"},
						},
					},
				},
				Relations: []models.RelationInfo{
					{
						TargetClassID: "c2",
						Relation:      models.RelationAggregation,
						MultiplicityP: &models.Multiplicity{Lower: 1, Upper: &upper},
						RoleNameC:     strPtr("parts"),
					},
				},
			},
			{ID: "c2", Name: "Part"},
		},
	}
}

func TestFilePayloadRoundTrip(t *testing.T) {
	t.Parallel()

	original := testFile("f1")

	payload, err := EncodeFile(original)
	require.NoError(t, err)

	decoded, err := DecodeFile(payload)
	require.NoError(t, err)

	if !original.Equal(decoded) {
		t.Fatalf("round trip mismatch:\n%s", cmp.Diff(original, decoded, cmpopts.EquateEmpty()))
	}

	// Presence survives independently of value.
	first := decoded.Classes[0]
	assert.NotNil(t, first.Attributes[0].Visibility)
	require.NotNil(t, first.Attributes[1].IsStatic)
	assert.False(t, *first.Attributes[1].IsStatic)
	assert.Nil(t, first.Attributes[2].Visibility)
	assert.Nil(t, first.Attributes[2].IsStatic)
	require.NotNil(t, first.Relations[0].MultiplicityP)
	assert.Equal(t, uint32(3), *first.Relations[0].MultiplicityP.Upper)
	assert.Nil(t, first.Relations[0].MultiplicityC)
	assert.Nil(t, first.Relations[0].RoleNameP)
	require.NotNil(t, first.Relations[0].RoleNameC)

	// The second class never had a relation list.
	assert.Nil(t, decoded.Classes[1].Relations)
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	files := map[string]*models.File{
		"f1": testFile("f1"),
		"f2": testFile("f2"),
		"f3": {FileID: "f3", Name: "empty diagram"},
	}

	blob, err := EncodeSnapshot(files)
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(blob)
	require.NoError(t, err)
	require.Len(t, decoded, 3)

	for id, file := range files {
		got, ok := decoded[id]
		require.True(t, ok, "missing %s", id)
		assert.True(t, file.Equal(got), "document %s changed across round trip", id)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	t.Parallel()

	// A zero-length blob is an empty store, not an error.
	decoded, err := DecodeSnapshot(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)

	decoded, err = DecodeSnapshot([]byte{})
	require.NoError(t, err)
	assert.Empty(t, decoded)

	// An encoded empty store decodes back to empty.
	blob, err := EncodeSnapshot(map[string]*models.File{})
	require.NoError(t, err)

	decoded, err = DecodeSnapshot(blob)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestSnapshotCorrupt(t *testing.T) {
	t.Parallel()

	valid, err := EncodeSnapshot(map[string]*models.File{"f1": testFile("f1")})
	require.NoError(t, err)

	overclaimKey := make([]byte, 12)
	binary.BigEndian.PutUint32(overclaimKey[0:4], 1)
	binary.BigEndian.PutUint32(overclaimKey[4:8], 1000) // key_len way past the end

	overclaimPayload := make([]byte, 14)
	binary.BigEndian.PutUint32(overclaimPayload[0:4], 1)
	binary.BigEndian.PutUint32(overclaimPayload[4:8], 2)
	copy(overclaimPayload[8:10], "f1")
	binary.BigEndian.PutUint32(overclaimPayload[10:14], 500) // payload_len past the end

	garbagePayload := make([]byte, 0, 16)
	garbagePayload = binary.BigEndian.AppendUint32(garbagePayload, 1)
	garbagePayload = binary.BigEndian.AppendUint32(garbagePayload, 2)
	garbagePayload = append(garbagePayload, "f1"...)
	garbagePayload = binary.BigEndian.AppendUint32(garbagePayload, 3)
	garbagePayload = append(garbagePayload, 0xDE, 0xAD, 0xBF) // not BSON

	cases := []struct {
		name string
		data []byte
	}{
		{"truncated entry count", valid[:2]},
		{"truncated mid-entry", valid[:len(valid)-5]},
		{"key length past end", overclaimKey},
		{"payload length past end", overclaimPayload},
		{"entry count with no entries", []byte{0, 0, 0, 5}},
		{"payload not a document", garbagePayload},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeSnapshot(tc.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestSnapshotStableWithinEncode(t *testing.T) {
	t.Parallel()

	files := map[string]*models.File{
		"a": testFile("a"),
		"b": testFile("b"),
		"c": testFile("c"),
	}

	// Two encodes need not be byte-identical, but each must decode to
	// the same contents.
	for i := 0; i < 3; i++ {
		blob, err := EncodeSnapshot(files)
		require.NoError(t, err)

		decoded, err := DecodeSnapshot(blob)
		require.NoError(t, err)
		require.Len(t, decoded, len(files))

		for id := range files {
			assert.True(t, files[id].Equal(decoded[id]))
		}
	}
}
