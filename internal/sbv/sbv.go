// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package sbv implements a bitvector with select-1 support and a versioned,
// checksummed serialization. The bitvector is stored as 64-bit words with a
// rank sample per 512-bit block; Select1 binary searches the samples and then
// scans at most one block. This trades a small space overhead (~2%) for O(log
// n/512) select, which is ample for the index's one-select-per-query access
// pattern.
package sbv

import (
	"encoding/binary"
	"io"
	"math/bits"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// ErrCorrupt is returned when a serialized bitvector fails validation.
var ErrCorrupt = errors.New("sbv: corrupt bitvector encoding")

const (
	formatVersion = 1
	// blockWords is the rank sampling interval, in 64-bit words.
	blockWords = 8
)

// Builder accumulates set bits for a bitvector of a fixed length.
type Builder struct {
	words []uint64
	n     int
	ones  int
}

// NewBuilder returns a Builder for a bitvector of n bits, all initially zero.
func NewBuilder(n int) *Builder {
	return &Builder{
		words: make([]uint64, (n+63)/64),
		n:     n,
	}
}

// Set sets bit i. Setting an already-set bit is a no-op. Set panics if i is
// out of range, matching slice indexing semantics.
func (b *Builder) Set(i int) {
	if i < 0 || i >= b.n {
		panic(errors.AssertionFailedf("sbv: bit %d out of range [0, %d)", i, b.n))
	}
	w, mask := i>>6, uint64(1)<<uint(i&63)
	if b.words[w]&mask == 0 {
		b.words[w] |= mask
		b.ones++
	}
}

// Finish builds the rank samples and returns the finished Vector. The Builder
// must not be used afterwards.
func (b *Builder) Finish() *Vector {
	v := &Vector{
		words: b.words,
		n:     b.n,
		ones:  b.ones,
	}
	v.buildRanks()
	return v
}

// Build constructs a Vector directly from a dense boolean sequence.
func Build(bits []bool) *Vector {
	b := NewBuilder(len(bits))
	for i, set := range bits {
		if set {
			b.Set(i)
		}
	}
	return b.Finish()
}

// Vector is an immutable bitvector with select-1 support.
type Vector struct {
	words []uint64
	// ranks[i] is the number of set bits in words[:i*blockWords].
	ranks []uint64
	n     int
	ones  int
}

func (v *Vector) buildRanks() {
	nBlocks := (len(v.words) + blockWords - 1) / blockWords
	v.ranks = make([]uint64, nBlocks+1)
	var sum uint64
	for i := 0; i < nBlocks; i++ {
		v.ranks[i] = sum
		end := (i + 1) * blockWords
		if end > len(v.words) {
			end = len(v.words)
		}
		for _, w := range v.words[i*blockWords : end] {
			sum += uint64(bits.OnesCount64(w))
		}
	}
	v.ranks[nBlocks] = sum
}

// Len returns the number of bits in the vector.
func (v *Vector) Len() int { return v.n }

// Ones returns the number of set bits.
func (v *Vector) Ones() int { return v.ones }

// Get returns whether bit i is set.
func (v *Vector) Get(i int) bool {
	return v.words[i>>6]&(uint64(1)<<uint(i&63)) != 0
}

// Select1 returns the position of the rank-th set bit, with rank 1-based:
// Select1(1) is the position of the first set bit. Ranks outside [1, Ones()]
// are an error.
func (v *Vector) Select1(rank int) (int, error) {
	if rank < 1 || rank > v.ones {
		return 0, errors.Newf("sbv: select rank %d outside [1, %d]", rank, v.ones)
	}
	r := uint64(rank)
	// Find the last block whose preceding-ones count is < r.
	block := sort.Search(len(v.ranks), func(i int) bool { return v.ranks[i] >= r }) - 1
	rem := int(r - v.ranks[block])
	for wi := block * blockWords; ; wi++ {
		c := bits.OnesCount64(v.words[wi])
		if rem <= c {
			return wi<<6 + selectInWord(v.words[wi], rem), nil
		}
		rem -= c
	}
}

// selectInWord returns the position of the r-th (1-based) set bit of w. The
// caller guarantees w has at least r set bits.
func selectInWord(w uint64, r int) int {
	pos := 0
	// Narrow by half-word popcount, then walk the final byte.
	if c := bits.OnesCount32(uint32(w)); r > c {
		r -= c
		w >>= 32
		pos += 32
	}
	if c := bits.OnesCount16(uint16(w)); r > c {
		r -= c
		w >>= 16
		pos += 16
	}
	if c := bits.OnesCount8(uint8(w)); r > c {
		r -= c
		w >>= 8
		pos += 8
	}
	for {
		if w&1 != 0 {
			r--
			if r == 0 {
				return pos
			}
		}
		w >>= 1
		pos++
	}
}

// Serialized layout, all fields little-endian:
//
//	uint32 version
//	uint64 bit count
//	uint64 set-bit count
//	uint64 word count, then that many uint64 words
//	uint64 rank-sample count, then that many uint64 samples
//	uint64 xxhash64 of all preceding bytes
//
// The trailing checksum covers the header and both arrays, so a truncated or
// bit-flipped encoding is detected before any select query can consult it.

// WriteTo serializes the vector and returns the number of bytes written.
func (v *Vector) WriteTo(w io.Writer) (int64, error) {
	buf := v.encode()
	n, err := w.Write(buf)
	return int64(n), err
}

func (v *Vector) encode() []byte {
	size := 4 + 8 + 8 + 8 + 8*len(v.words) + 8 + 8*len(v.ranks) + 8
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, formatVersion)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(v.n))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(v.ones))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(v.words)))
	for _, word := range v.words {
		buf = binary.LittleEndian.AppendUint64(buf, word)
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(v.ranks)))
	for _, sample := range v.ranks {
		buf = binary.LittleEndian.AppendUint64(buf, sample)
	}
	buf = binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf))
	return buf
}

// Decode deserializes a vector from the front of data, returning the vector
// and the number of bytes consumed. It fails with ErrCorrupt if the encoding
// is truncated, of an unknown version, or fails its checksum.
func Decode(data []byte) (*Vector, int, error) {
	d := decoder{data: data}
	version := d.uint32()
	n := int(d.uint64())
	ones := int(d.uint64())
	nWords := int(d.uint64())
	if d.err != nil || version != formatVersion {
		return nil, 0, errors.Wrapf(ErrCorrupt, "bad header (version %d)", version)
	}
	// Bound the array lengths by the encoding size before allocating.
	if nWords < 0 || nWords > len(data)/8 {
		return nil, 0, errors.Wrapf(ErrCorrupt, "implausible word count %d", nWords)
	}
	v := &Vector{n: n, ones: ones, words: make([]uint64, nWords)}
	for i := range v.words {
		v.words[i] = d.uint64()
	}
	nRanks := int(d.uint64())
	if nRanks < 0 || nRanks > len(data)/8 {
		return nil, 0, errors.Wrapf(ErrCorrupt, "implausible sample count %d", nRanks)
	}
	if d.err == nil {
		v.ranks = make([]uint64, nRanks)
		for i := range v.ranks {
			v.ranks[i] = d.uint64()
		}
	}
	payloadEnd := d.off
	sum := d.uint64()
	if d.err != nil {
		return nil, 0, errors.Wrap(ErrCorrupt, "truncated encoding")
	}
	if got := xxhash.Sum64(data[:payloadEnd]); got != sum {
		return nil, 0, errors.Wrapf(ErrCorrupt, "checksum mismatch (got %#x, want %#x)", got, sum)
	}
	if len(v.words) != (v.n+63)/64 {
		return nil, 0, errors.Wrapf(ErrCorrupt, "%d words cannot hold %d bits", len(v.words), v.n)
	}
	return v, d.off, nil
}

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) uint32() uint32 {
	if d.err != nil || d.off+4 > len(d.data) {
		d.err = io.ErrUnexpectedEOF
		return 0
	}
	u := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return u
}

func (d *decoder) uint64() uint64 {
	if d.err != nil || d.off+8 > len(d.data) {
		d.err = io.ErrUnexpectedEOF
		return 0
	}
	u := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return u
}
