package identity

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuffixLength(t *testing.T) {
	for _, n := range []int{1, 5, 10, 32, 33, 70} {
		s, err := Suffix(UUIDSource{}, n)
		require.NoError(t, err)
		assert.Len(t, s, n)
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), s)
	}
}

func TestSuffixRejectsNonPositiveLength(t *testing.T) {
	_, err := Suffix(UUIDSource{}, 0)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = Suffix(UUIDSource{}, -3)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestSuffixNilSourceFallsBackToUUID(t *testing.T) {
	s, err := Suffix(nil, 10)
	require.NoError(t, err)
	assert.Len(t, s, 10)
}

func TestSequenceIsDeterministic(t *testing.T) {
	seq := NewSequence("abc", "defghij")
	s, err := Suffix(seq, 5)
	require.NoError(t, err)
	assert.Equal(t, "abcde", s)

	// next call starts from the first id again
	s, err = Suffix(seq, 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", s)
}

func TestSequenceEmpty(t *testing.T) {
	_, err := Suffix(NewSequence(), 4)
	assert.Error(t, err)
}

func TestUUIDSourceProducesDistinctIDs(t *testing.T) {
	src := UUIDSource{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := src.NextID()
		assert.Len(t, id, 32)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
