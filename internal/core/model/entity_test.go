package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindCircle, KindCompoundBlock, KindTextBubble, KindCrack, KindImage} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	parsed, err := ParseKind("  CRACK ")
	require.NoError(t, err)
	assert.Equal(t, KindCrack, parsed)

	_, err = ParseKind("lava")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKindPhysical(t *testing.T) {
	assert.False(t, KindCrack.Physical())
	assert.True(t, KindCircle.Physical())
	assert.True(t, KindImage.Physical())
}

func TestEntityKindFollowsShape(t *testing.T) {
	assert.Equal(t, KindTextBubble, RenderEntity{Shape: TextBubble{Text: "hi"}}.Kind())
	assert.Equal(t, KindCompoundBlock, RenderEntity{Shape: CompoundBlock{Tetromino: TetrominoAt(3)}}.Kind())
	assert.Equal(t, KindCircle, RenderEntity{}.Kind())
}

func TestTetrominoCatalogue(t *testing.T) {
	all := Tetrominoes()
	require.Len(t, all, 7)

	seen := map[string]bool{}
	for _, tm := range all {
		seen[tm.Name] = true
		assert.NotZero(t, tm.Color>>24, "layout %s must be opaque", tm.Name)
	}
	assert.Len(t, seen, 7)

	// the returned slice is a copy
	all[0].Name = "X"
	assert.Equal(t, "I", TetrominoAt(0).Name)
	assert.Equal(t, "Z", TetrominoAt(-1).Name)
}

func TestEntityJSON(t *testing.T) {
	in := []RenderEntity{
		{ID: 1, X: 10, Y: 20, Rotation: 45, Shape: Circle{Radius: 80}},
		{ID: 2, Shape: CompoundBlock{BlockSize: 50, Tetromino: TetrominoAt(5)}},
		{ID: 3, Shape: TextBubble{Width: 200, Height: 90, Text: "Focus!", Color: 0xAA000000}},
		{ID: 4, Shape: Crack{Radius: 200}},
		{ID: 5, Shape: Image{Width: 120, Height: 240, Ref: "file:///cat.png"}},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"block"`)
	assert.Contains(t, string(data), `"tetromino":"T"`)
	assert.Contains(t, string(data), `"branches":[{"angle":`)

	var out []RenderEntity
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCrackBranchesDeterministic(t *testing.T) {
	e := RenderEntity{ID: 42, Shape: Crack{Radius: 150}}

	first := CrackBranches(e)
	second := CrackBranches(e)
	require.Equal(t, first, second)
	require.GreaterOrEqual(t, len(first), 5)
	require.LessOrEqual(t, len(first), 8)

	for _, b := range first {
		assert.GreaterOrEqual(t, b.Length, 2*150*0.7)
		assert.Less(t, b.Length, 2*150*1.3)
	}

	other := CrackBranches(RenderEntity{ID: 43, Shape: Crack{Radius: 150}})
	assert.NotEqual(t, first, other)

	assert.Nil(t, CrackBranches(RenderEntity{ID: 42, Shape: Circle{Radius: 1}}))
}
