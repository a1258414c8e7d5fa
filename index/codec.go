package index

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/csindex/csindexd/x"
)

const (
	magic         = "csearch index 1\n"
	trailerMagic  = "\ncsearch trailr\n"
	trailerLen    = len(trailerMagic)
	offsetsLen    = 5 * 4
	postEntrySize = 3 + 4 + 4
)

// Read decodes the index file at path into an in-memory Index.
func Read(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening index file")
	}
	defer f.Close()
	return decode(f)
}

func decode(f *os.File) (*Index, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "seeking to end")
	}
	if size < int64(len(magic)+trailerLen+offsetsLen) {
		return nil, x.WrapInvalid("index file too small")
	}

	header := make([]byte, len(magic))
	if _, err := f.ReadAt(header, 0); err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if string(header) != magic {
		return nil, x.WrapInvalid("bad header %q", header)
	}

	trailer := make([]byte, trailerLen)
	if _, err := f.ReadAt(trailer, size-int64(trailerLen)); err != nil {
		return nil, errors.Wrap(err, "reading trailer")
	}
	if string(trailer) != trailerMagic {
		return nil, x.WrapInvalid("bad trailer %q", trailer)
	}

	offBuf := make([]byte, offsetsLen)
	offStart := size - int64(trailerLen) - int64(offsetsLen)
	if _, err := f.ReadAt(offBuf, offStart); err != nil {
		return nil, errors.Wrap(err, "reading trailer offsets")
	}
	offR := bytes.NewReader(offBuf)
	t := Trailer{}
	for _, dst := range []*uint32{&t.PathList, &t.NameList, &t.PostingList, &t.NameIndex, &t.PostingListIndex} {
		v, err := readU32BE(offR)
		if err != nil {
			return nil, x.WrapInvalid("reading offsets: %v", err)
		}
		*dst = v
	}

	idx := &Index{Trailer: t}

	pathBytes, err := readSection(f, t.PathList, t.NameList)
	if err != nil {
		return nil, err
	}
	idx.Paths = decodeStrings(pathBytes)

	nameBytes, err := readSection(f, t.NameList, t.PostingList)
	if err != nil {
		return nil, err
	}
	idx.Names = decodeStrings(nameBytes)

	postBytes, err := readSection(f, t.PostingList, t.NameIndex)
	if err != nil {
		return nil, err
	}
	idx.Postings, err = decodePostings(postBytes)
	if err != nil {
		return nil, err
	}

	nameIndexBytes, err := readSection(f, t.NameIndex, t.PostingListIndex)
	if err != nil {
		return nil, err
	}
	idx.NameIndex, err = decodeU32Slice(nameIndexBytes)
	if err != nil {
		return nil, err
	}

	postIndexBytes, err := readSection(f, t.PostingListIndex, uint32(offStart))
	if err != nil {
		return nil, err
	}
	idx.PostingIndex, err = decodePostingIndex(postIndexBytes)
	if err != nil {
		return nil, err
	}

	return idx, nil
}

// readSection reads the bytes in [start, end) of f.
func readSection(f *os.File, start, end uint32) ([]byte, error) {
	if end < start {
		return nil, x.WrapInvalid("section end %d before start %d", end, start)
	}
	buf := make([]byte, end-start)
	if _, err := f.ReadAt(buf, int64(start)); err != nil {
		return nil, errors.Wrap(err, "reading section")
	}
	return buf, nil
}

// decodeStrings splits a Strings section's raw bytes on NUL, dropping the
// trailing empty terminator entry.
func decodeStrings(b []byte) Strings {
	var entries []string
	for _, part := range bytes.Split(b, []byte{0}) {
		if len(part) > 0 {
			entries = append(entries, string(part))
		}
	}
	return Strings{Entries: entries}
}

func decodePostings(b []byte) (Postings, error) {
	var entries []Posting
	pos := 0
	for pos < len(b) {
		if pos+3 > len(b) {
			return Postings{}, x.WrapInvalid("truncated posting trigram")
		}
		var trigram [3]byte
		copy(trigram[:], b[pos:pos+3])
		pos += 3

		var deltas []uint32
		for {
			d, n, err := readVarintAt(b, pos)
			if err != nil {
				return Postings{}, x.WrapInvalid("reading posting deltas: %v", err)
			}
			pos += n
			deltas = append(deltas, uint32(d))
			if d == 0 {
				break
			}
		}
		p := Posting{Trigram: trigram, Deltas: deltas}
		entries = append(entries, p)
		if p.IsSentinel() {
			break
		}
	}
	return Postings{Entries: entries}, nil
}

func decodeU32Slice(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, x.WrapInvalid("name index section size %d not a multiple of 4", len(b))
	}
	out := make([]uint32, len(b)/4)
	r := bytes.NewReader(b)
	for i := range out {
		v, err := readU32BE(r)
		if err != nil {
			return nil, x.WrapInvalid("reading name index entry: %v", err)
		}
		out[i] = v
	}
	return out, nil
}

func decodePostingIndex(b []byte) ([]PostingIndexEntry, error) {
	if len(b)%postEntrySize != 0 {
		return nil, x.WrapInvalid("posting index section size %d not a multiple of %d", len(b), postEntrySize)
	}
	out := make([]PostingIndexEntry, len(b)/postEntrySize)
	r := bytes.NewReader(b)
	for i := range out {
		var e PostingIndexEntry
		if _, err := io.ReadFull(r, e.Trigram[:]); err != nil {
			return nil, x.WrapInvalid("reading posting index trigram: %v", err)
		}
		fc, err := readU32BE(r)
		if err != nil {
			return nil, x.WrapInvalid("reading posting index count: %v", err)
		}
		off, err := readU32BE(r)
		if err != nil {
			return nil, x.WrapInvalid("reading posting index offset: %v", err)
		}
		e.FileCount = fc
		e.Offset = off
		out[i] = e
	}
	return out, nil
}

// Write encodes idx to path, recomputing all offsets from the section
// lengths actually emitted. The file is written to a temporary sibling and
// renamed into place so the replace is atomic from the writer's standpoint.
func Write(idx *Index, path string) error {
	idx.recomputeOffsets()

	tmpName := ".csindex-" + uuid.NewString() + ".tmp"
	tmp, err := os.OpenFile(filepath.Join(filepath.Dir(path), tmpName),
		os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	w := bufio.NewWriter(tmp)
	if err := encode(idx, w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flushing index file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "renaming index file into place")
	}
	return nil
}

func encode(idx *Index, w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if err := encodeStrings(w, idx.Paths); err != nil {
		return err
	}
	if err := encodeStrings(w, idx.Names); err != nil {
		return err
	}
	if err := encodePostings(w, idx.Postings); err != nil {
		return err
	}
	for _, off := range idx.NameIndex {
		if err := writeU32BE(w, off); err != nil {
			return err
		}
	}
	for _, e := range idx.PostingIndex {
		if _, err := w.Write(e.Trigram[:]); err != nil {
			return errors.Wrap(err, "writing posting index trigram")
		}
		if err := writeU32BE(w, e.FileCount); err != nil {
			return err
		}
		if err := writeU32BE(w, e.Offset); err != nil {
			return err
		}
	}
	for _, off := range []uint32{
		idx.Trailer.PathList, idx.Trailer.NameList, idx.Trailer.PostingList,
		idx.Trailer.NameIndex, idx.Trailer.PostingListIndex,
	} {
		if err := writeU32BE(w, off); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, trailerMagic); err != nil {
		return errors.Wrap(err, "writing trailer magic")
	}
	return nil
}

func encodeStrings(w io.Writer, s Strings) error {
	for _, entry := range s.Entries {
		if _, err := io.WriteString(w, entry); err != nil {
			return errors.Wrap(err, "writing string entry")
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return errors.Wrap(err, "writing string terminator")
		}
	}
	_, err := w.Write([]byte{0})
	return errors.Wrap(err, "writing section terminator")
}

func encodePostings(w io.Writer, p Postings) error {
	for _, posting := range p.Entries {
		if _, err := w.Write(posting.Trigram[:]); err != nil {
			return errors.Wrap(err, "writing posting trigram")
		}
		for _, d := range posting.Deltas {
			if _, err := writeVarint(w, d); err != nil {
				return err
			}
		}
	}
	return nil
}
