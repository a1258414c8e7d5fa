package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeltaEncodingSample(t *testing.T) {
	deltas := []uint32{2, 5, 1, 1, 0}
	p := Posting{Trigram: [3]byte{'a', 'b', 'c'}, Deltas: deltas}
	ids := p.FileIDs()
	require.Equal(t, []uint32{1, 6, 7, 8}, ids)
	require.Equal(t, deltas, deltasFromFileIDs(ids))
}

func TestDeltaIDInverseSingleFile(t *testing.T) {
	p := Posting{Trigram: [3]byte{'a', 'b', 'c'}, Deltas: []uint32{1, 0}}
	require.Equal(t, []uint32{0}, p.FileIDs())
}

func TestDeltaIDInverseRoundTrip(t *testing.T) {
	ids := []uint32{0, 1, 2, 100, 101, 5000}
	deltas := deltasFromFileIDs(ids)
	require.Equal(t, uint32(0), deltas[len(deltas)-1])

	p := Posting{Deltas: deltas}
	require.Equal(t, ids, p.FileIDs())
}

func TestSentinelIsRecognized(t *testing.T) {
	p := Posting{Trigram: sentinelTrigram, Deltas: []uint32{0}}
	require.True(t, p.IsSentinel())

	other := Posting{Trigram: [3]byte{'x', 'y', 'z'}, Deltas: []uint32{0}}
	require.False(t, other.IsSentinel())
}

func TestEmptyIndexStat(t *testing.T) {
	idx := Empty()
	st := idx.Stat()
	require.Equal(t, Stat{NumPaths: 0, NumNames: 0, NumPostings: 0}, st)
	require.Equal(t, []uint32{0}, idx.NameIndex)
	require.Empty(t, idx.PostingIndex)
}
