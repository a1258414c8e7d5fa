// Package index implements the on-disk trigram index format used by the
// cindex/csearch toolchain: decoding a file into an in-memory Index,
// mutating that model (pruning), and re-encoding it byte-for-byte.
package index

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// readU32BE reads exactly 4 bytes from r and returns the big-endian value.
func readU32BE(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.Wrap(err, "reading u32")
	}
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]), nil
}

// writeU32BE writes v to w as 4 big-endian bytes.
func writeU32BE(w io.Writer, v uint32) error {
	buf := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := w.Write(buf[:])
	return errors.Wrap(err, "writing u32")
}

// readVarint reads a LEB128-style unsigned varint: 7-bit groups, low byte
// first, continuation signalled by the high bit. At least one byte is
// consumed.
func readVarint(r io.ByteReader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "reading varint")
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

// readVarintAt reads a single varint from b starting at pos, returning the
// decoded value and the number of bytes consumed.
func readVarintAt(b []byte, pos int) (uint64, int, error) {
	r := bytes.NewReader(b[pos:])
	v, err := readVarint(r)
	if err != nil {
		return 0, 0, err
	}
	return v, len(b[pos:]) - r.Len(), nil
}

// writeVarint writes v to w in the same 7-bit group encoding readVarint
// reads, and returns the number of bytes written.
func writeVarint(w io.Writer, v uint32) (int, error) {
	var buf [5]byte
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if v == 0 {
			break
		}
	}
	_, err := w.Write(buf[:n])
	return n, errors.Wrap(err, "writing varint")
}

// varintSize returns the number of bytes writeVarint would emit for v.
func varintSize(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
