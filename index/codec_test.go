package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyIndexRoundTripAndSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, Write(Empty(), path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 62, fi.Size())

	idx, err := Read(path)
	require.NoError(t, err)
	require.Empty(t, idx.Paths.Entries)
	require.Empty(t, idx.Names.Entries)
	require.Len(t, idx.Postings.Entries, 1)
	require.True(t, idx.Postings.Entries[0].IsSentinel())
	require.Equal(t, []uint32{0}, idx.NameIndex)
	require.Empty(t, idx.PostingIndex)
}

func TestRoundTripWithContent(t *testing.T) {
	idx := &Index{
		Paths: Strings{Entries: []string{"/a", "/b"}},
		Names: Strings{Entries: []string{"/a/x.go", "/a/y.go", "/b/z.go"}},
		Postings: Postings{Entries: []Posting{
			{Trigram: [3]byte{'a', 'b', 'c'}, Deltas: deltasFromFileIDs([]uint32{0, 2})},
			{Trigram: [3]byte{'x', 'y', 'z'}, Deltas: deltasFromFileIDs([]uint32{1})},
			{Trigram: sentinelTrigram, Deltas: []uint32{0}},
		}},
	}

	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, Write(idx, path))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, idx.Paths.Entries, got.Paths.Entries)
	require.Equal(t, idx.Names.Entries, got.Names.Entries)
	require.Len(t, got.Postings.Entries, 3)
	require.Equal(t, []uint32{0, 2}, got.Postings.Entries[0].FileIDs())
	require.Equal(t, []uint32{1}, got.Postings.Entries[1].FileIDs())
	require.True(t, got.Postings.Entries[2].IsSentinel())
	require.Len(t, got.PostingIndex, 2)
}

func TestReadRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(path, []byte("not an index file, but long enough to pass the size check"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
}

func TestReadRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(path, []byte(magic), 0o644))

	_, err := Read(path)
	require.Error(t, err)
}

func TestWriteIsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index")
	require.NoError(t, Write(Empty(), path))

	idx2 := &Index{
		Paths:    Strings{Entries: []string{"/only"}},
		Postings: Postings{Entries: []Posting{{Trigram: sentinelTrigram, Deltas: []uint32{0}}}},
	}
	require.NoError(t, Write(idx2, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover temp file after a successful write")

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, []string{"/only"}, got.Paths.Entries)
}
