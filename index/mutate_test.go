package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestIndex() *Index {
	idx := &Index{
		Paths: Strings{Entries: []string{"/a"}},
		Names: Strings{Entries: []string{"/a/x"}},
		Postings: Postings{Entries: []Posting{
			{Trigram: [3]byte{'a', 'b', 'c'}, Deltas: []uint32{1, 0}},
			{Trigram: sentinelTrigram, Deltas: []uint32{0}},
		}},
	}
	idx.recomputeOffsets()
	return idx
}

func TestPrunePathsSingleFileScenario(t *testing.T) {
	idx := newTestIndex()
	PrunePaths(idx, []string{"/a"})

	require.Empty(t, idx.Paths.Entries)
	require.Empty(t, idx.Names.Entries)
	require.Len(t, idx.Postings.Entries, 1)
	require.True(t, idx.Postings.Entries[0].IsSentinel())
}

func TestPrunePathsByteExactStartswithOvermatches(t *testing.T) {
	idx := &Index{
		Paths: Strings{Entries: []string{"/foo", "/foobar", "/bar"}},
		Names: Strings{Entries: []string{"/foo/a", "/foobar/b", "/bar/c"}},
		Postings: Postings{Entries: []Posting{
			{Trigram: sentinelTrigram, Deltas: []uint32{0}},
		}},
	}
	idx.recomputeOffsets()

	PrunePaths(idx, []string{"/foo"})

	require.Equal(t, []string{"/bar"}, idx.Paths.Entries)
	require.Equal(t, []string{"/bar/c"}, idx.Names.Entries)
}

func TestPrunePathsEmptySetIsNoOp(t *testing.T) {
	idx := newTestIndex()
	before := idx.Stat()
	PrunePaths(idx, nil)
	require.Equal(t, before, idx.Stat())
}

func TestPruneFilesRemovesOnlyMatchingPositions(t *testing.T) {
	idx := &Index{
		Names: Strings{Entries: []string{"a", "b", "c", "d"}},
		Postings: Postings{Entries: []Posting{
			{Trigram: [3]byte{'t', 'r', 'i'}, Deltas: deltasFromFileIDs([]uint32{0, 1, 2, 3})},
			{Trigram: sentinelTrigram, Deltas: []uint32{0}},
		}},
	}
	idx.recomputeOffsets()

	PruneFiles(idx, []string{"b", "d"}, []int{1, 3})

	require.Equal(t, []string{"a", "c"}, idx.Names.Entries)
	require.Equal(t, []uint32{0, 1}, idx.Postings.Entries[0].FileIDs())
	require.True(t, idx.Postings.Entries[1].IsSentinel())
}

func TestPruneFilesDropsPostingsThatCollapseToEmpty(t *testing.T) {
	idx := &Index{
		Names: Strings{Entries: []string{"a", "b"}},
		Postings: Postings{Entries: []Posting{
			{Trigram: [3]byte{'o', 'n', 'l'}, Deltas: deltasFromFileIDs([]uint32{0})},
			{Trigram: sentinelTrigram, Deltas: []uint32{0}},
		}},
	}
	idx.recomputeOffsets()

	PruneFiles(idx, []string{"a"}, []int{0})

	require.Len(t, idx.Postings.Entries, 1)
	require.True(t, idx.Postings.Entries[0].IsSentinel())
}

func TestPrunePreservesFormat(t *testing.T) {
	idx := &Index{
		Paths: Strings{Entries: []string{"/a", "/b", "/c"}},
		Names: Strings{Entries: []string{"/a/1", "/b/2", "/b/3", "/c/4"}},
		Postings: Postings{Entries: []Posting{
			{Trigram: [3]byte{'t', 'r', 'i'}, Deltas: deltasFromFileIDs([]uint32{0, 1, 2, 3})},
			{Trigram: sentinelTrigram, Deltas: []uint32{0}},
		}},
	}
	idx.recomputeOffsets()

	PrunePaths(idx, []string{"/b"})

	for _, n := range idx.Names.Entries {
		require.False(t, len(n) >= 2 && n[:2] == "/b", "name %q should have been pruned", n)
	}
	last := idx.Postings.Entries[len(idx.Postings.Entries)-1]
	require.True(t, last.IsSentinel(), "sentinel posting must remain")

	maxID := uint32(len(idx.Names.Entries))
	for _, p := range idx.Postings.Entries {
		for _, id := range p.FileIDs() {
			require.Less(t, id, maxID, "posting references a file ID beyond the surviving names")
		}
	}

	require.Equal(t, uint32(len(magic)), idx.Trailer.PathList)
	require.Less(t, idx.Trailer.PathList, idx.Trailer.NameList)
	require.Less(t, idx.Trailer.NameList, idx.Trailer.PostingList)
	require.Less(t, idx.Trailer.PostingList, idx.Trailer.NameIndex)
	require.Less(t, idx.Trailer.NameIndex, idx.Trailer.PostingListIndex)
}

func TestDryRunPruneDoesNotMutate(t *testing.T) {
	idx := newTestIndex()
	before := idx.Stat()

	namesRemoved, postingsRemoved := DryRunPrune(idx, []string{"/a"})

	require.Equal(t, before, idx.Stat())
	require.Equal(t, 1, namesRemoved)
	require.Equal(t, 1, postingsRemoved)
}
