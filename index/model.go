package index

// Strings is an ordered, sorted sequence of non-empty byte strings, encoded
// on disk as NUL-terminated entries followed by one empty terminator entry.
type Strings struct {
	Entries []string
}

// Posting holds the delta-encoded file-ID list for a single trigram.
// Deltas always ends in a terminating 0; file_ids(p) is the sequence of
// prefix sums of Deltas (minus the final 0), each minus 1, i.e. decoded
// against a virtual initial value of -1.
type Posting struct {
	Trigram [3]byte
	Deltas  []uint32
}

// sentinelTrigram is the terminating posting's trigram, 0xFFFFFF.
var sentinelTrigram = [3]byte{0xFF, 0xFF, 0xFF}

// IsSentinel reports whether p is the posting-list terminator.
func (p Posting) IsSentinel() bool {
	return p.Trigram == sentinelTrigram
}

// FileIDs expands p.Deltas into the strictly increasing file-ID list it
// encodes.
func (p Posting) FileIDs() []uint32 {
	ids := make([]uint32, 0, len(p.Deltas))
	fileID := ^uint32(0) // virtual initial value of -1
	for _, d := range p.Deltas[:len(p.Deltas)-1] {
		fileID += d
		ids = append(ids, fileID)
	}
	return ids
}

// deltasFromFileIDs re-encodes a strictly increasing file-ID list as a
// delta list ending in 0.
func deltasFromFileIDs(ids []uint32) []uint32 {
	deltas := make([]uint32, 0, len(ids)+1)
	prev := ^uint32(0) // -1
	for _, id := range ids {
		deltas = append(deltas, id-prev)
		prev = id
	}
	deltas = append(deltas, 0)
	return deltas
}

// Postings is the ordered sequence of non-empty posting lists, always
// terminated by the sentinel posting.
type Postings struct {
	Entries []Posting
}

// PostingIndexEntry is a random-access descriptor for one entry in Postings.
type PostingIndexEntry struct {
	Trigram   [3]byte
	FileCount uint32
	Offset    uint32
}

// Trailer holds the five absolute byte offsets stored at the end of an
// index file.
type Trailer struct {
	PathList         uint32
	NameList         uint32
	PostingList      uint32
	NameIndex        uint32
	PostingListIndex uint32
}

// Index is the full in-memory model of an on-disk trigram index.
type Index struct {
	Paths        Strings
	Names        Strings
	Postings     Postings
	NameIndex    []uint32
	PostingIndex []PostingIndexEntry
	Trailer      Trailer
}

// Empty returns a freshly initialized, valid, empty Index: no paths, no
// names, only the sentinel posting, and a name index holding just the
// terminator entry.
func Empty() *Index {
	idx := &Index{
		Postings:  Postings{Entries: []Posting{{Trigram: sentinelTrigram, Deltas: []uint32{0}}}},
		NameIndex: []uint32{0},
	}
	idx.recomputeOffsets()
	return idx
}

// Stat summarizes an Index for introspection endpoints.
type Stat struct {
	NumPaths    int
	NumNames    int
	NumPostings int
}

// Stat computes a read-only summary of idx. NumPostings excludes the
// sentinel.
func (idx *Index) Stat() Stat {
	n := len(idx.Postings.Entries)
	if n > 0 && idx.Postings.Entries[n-1].IsSentinel() {
		n--
	}
	return Stat{
		NumPaths:    len(idx.Paths.Entries),
		NumNames:    len(idx.Names.Entries),
		NumPostings: n,
	}
}
