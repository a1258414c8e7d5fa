package index

import "strings"

// PrunePaths removes every path in idx.Paths that starts with (is equal to
// or is a descendant of) any entry in paths, then cascades the removal to
// every name and posting reachable from those paths.
//
// Path matching is an exact byte-prefix startswith, which is intentionally
// permissive: pruning "/a" also removes "/ab". This mirrors the upstream
// cindex/csearch behavior and is preserved verbatim.
func PrunePaths(idx *Index, paths []string) {
	if len(paths) == 0 {
		return
	}

	kept := idx.Paths.Entries[:0:0]
	for _, p := range idx.Paths.Entries {
		if !hasAnyPrefix(p, paths) {
			kept = append(kept, p)
		}
	}
	idx.Paths.Entries = kept

	var names []string
	var positions []int
	for i, n := range idx.Names.Entries {
		if hasAnyPrefix(n, paths) {
			names = append(names, n)
			positions = append(positions, i)
		}
	}
	PruneFiles(idx, names, positions)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// PruneFiles removes the given names (at the given zero-based positions in
// idx.Names, prior to removal) from the index: the names themselves, and
// every file ID referencing them from every posting list. namePositions
// must be the positions of names within idx.Names as it stood before this
// call.
func PruneFiles(idx *Index, names []string, namePositions []int) {
	if len(names) == 0 {
		return
	}

	removed := make(map[int]bool, len(namePositions))
	for _, p := range namePositions {
		removed[p] = true
	}

	initialCount := len(idx.Names.Entries)
	remap := make(map[uint32]uint32, initialCount)
	offset := uint32(0)
	kept := idx.Names.Entries[:0:0]
	for i, n := range idx.Names.Entries {
		if removed[i] {
			offset++
			continue
		}
		remap[uint32(i)] = uint32(i) - offset
		kept = append(kept, n)
	}
	idx.Names.Entries = kept

	var postings []Posting
	for _, p := range idx.Postings.Entries {
		if p.IsSentinel() {
			postings = append(postings, p)
			continue
		}
		var survivors []uint32
		for _, id := range p.FileIDs() {
			if newID, ok := remap[id]; ok {
				survivors = append(survivors, newID)
			}
		}
		if len(survivors) == 0 {
			continue
		}
		postings = append(postings, Posting{Trigram: p.Trigram, Deltas: deltasFromFileIDs(survivors)})
	}
	idx.Postings.Entries = postings

	idx.recomputeOffsets()
}

// DryRunPrune computes, without mutating idx, how many names and postings
// PrunePaths(idx, paths) would remove.
func DryRunPrune(idx *Index, paths []string) (namesRemoved, postingsRemoved int) {
	clone := cloneIndex(idx)
	before := clone.Stat()
	PrunePaths(clone, paths)
	after := clone.Stat()
	return before.NumNames - after.NumNames, before.NumPostings - after.NumPostings
}

func cloneIndex(idx *Index) *Index {
	c := &Index{
		Paths: Strings{Entries: append([]string(nil), idx.Paths.Entries...)},
		Names: Strings{Entries: append([]string(nil), idx.Names.Entries...)},
	}
	c.Postings.Entries = make([]Posting, len(idx.Postings.Entries))
	for i, p := range idx.Postings.Entries {
		c.Postings.Entries[i] = Posting{Trigram: p.Trigram, Deltas: append([]uint32(nil), p.Deltas...)}
	}
	c.recomputeOffsets()
	return c
}

// recomputeOffsets rebuilds NameIndex, PostingIndex, and Trailer from the
// current Paths/Names/Postings contents. It must be called any time those
// fields change, and before encoding.
func (idx *Index) recomputeOffsets() {
	idx.NameIndex = make([]uint32, len(idx.Names.Entries)+1)
	var cum uint32
	for i, n := range idx.Names.Entries {
		idx.NameIndex[i] = cum
		cum += uint32(len(n)) + 1
	}
	idx.NameIndex[len(idx.Names.Entries)] = cum

	idx.PostingIndex = make([]PostingIndexEntry, 0, len(idx.Postings.Entries))
	var postOff uint32
	for _, p := range idx.Postings.Entries {
		if !p.IsSentinel() {
			idx.PostingIndex = append(idx.PostingIndex, PostingIndexEntry{
				Trigram:   p.Trigram,
				FileCount: uint32(len(p.Deltas) - 1),
				Offset:    postOff,
			})
		}
		postOff += 3
		for _, d := range p.Deltas {
			postOff += uint32(varintSize(d))
		}
	}

	var pathBytes uint32
	for _, p := range idx.Paths.Entries {
		pathBytes += uint32(len(p)) + 1
	}
	var nameBytes uint32
	for _, n := range idx.Names.Entries {
		nameBytes += uint32(len(n)) + 1
	}

	idx.Trailer.PathList = uint32(len(magic))
	idx.Trailer.NameList = idx.Trailer.PathList + pathBytes + 1
	idx.Trailer.PostingList = idx.Trailer.NameList + nameBytes + 1
	idx.Trailer.NameIndex = idx.Trailer.PostingList + postOff
	idx.Trailer.PostingListIndex = idx.Trailer.NameIndex + 4*uint32(len(idx.NameIndex))
}
