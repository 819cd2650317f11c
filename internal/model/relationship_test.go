package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a := "0b54c8dd-4c21-4f3b-9a2e-111111111111"
	b := "1c65d9ee-5d32-4a4c-8b3f-222222222222"

	assert.Equal(t, PairKey(a, b), PairKey(b, a))
	assert.Equal(t, a+":"+b, PairKey(b, a))
}

func TestPairKeySortsLexicographically(t *testing.T) {
	assert.Equal(t, "abc:xyz", PairKey("xyz", "abc"))
	assert.Equal(t, "abc:xyz", PairKey("abc", "xyz"))
}

func TestBeforeCreateDerivesIDAndPairKey(t *testing.T) {
	rel := &Relationship{
		RequesterID: "1c65d9ee-5d32-4a4c-8b3f-222222222222",
		TargetID:    "0b54c8dd-4c21-4f3b-9a2e-111111111111",
	}
	require.NoError(t, rel.BeforeCreate(nil))

	assert.NotEmpty(t, rel.ID)
	assert.Equal(t, PairKey(rel.RequesterID, rel.TargetID), rel.PairKey)
}

func TestBeforeCreateKeepsExplicitValues(t *testing.T) {
	rel := &Relationship{
		ID:          "preset-id",
		PairKey:     "preset-key",
		RequesterID: "a",
		TargetID:    "b",
	}
	require.NoError(t, rel.BeforeCreate(nil))

	assert.Equal(t, "preset-id", rel.ID)
	assert.Equal(t, "preset-key", rel.PairKey)
}

func TestInvolvesAndOtherParty(t *testing.T) {
	rel := &Relationship{RequesterID: "a", TargetID: "b"}

	assert.True(t, rel.Involves("a"))
	assert.True(t, rel.Involves("b"))
	assert.False(t, rel.Involves("c"))

	assert.Equal(t, "b", rel.OtherParty("a"))
	assert.Equal(t, "a", rel.OtherParty("b"))
}
