// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package rec implements the fixed-width record codec used by the backing
// store. A record is the key's bytes followed by the value's bytes, with no
// framing or padding. Keys are written big-endian so that ordering records by
// their leading key bytes is the same as ordering keys numerically, which is
// what lets an ordinary byte-wise radix sort produce a numerically sorted
// file.
package rec

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// Codec encodes and decodes records for a single (key width, value width)
// schema. The key width is the in-memory size of K; the value width is fixed
// at construction. Codec is stateless and copyable.
type Codec[K constraints.Unsigned] struct {
	valueSize int
}

// MakeCodec returns a Codec for values of the given fixed width. The width
// must be positive.
func MakeCodec[K constraints.Unsigned](valueSize int) (Codec[K], error) {
	if valueSize <= 0 {
		return Codec[K]{}, errors.Newf("rec: non-positive value width %d", valueSize)
	}
	return Codec[K]{valueSize: valueSize}, nil
}

// KeySize returns the width of an encoded key in bytes.
func (c Codec[K]) KeySize() int {
	var k K
	return int(unsafe.Sizeof(k))
}

// ValueSize returns the width of an encoded value in bytes.
func (c Codec[K]) ValueSize() int { return c.valueSize }

// RecordSize returns the width of an encoded record in bytes.
func (c Codec[K]) RecordSize() int { return c.KeySize() + c.valueSize }

// PutKey encodes k big-endian into the first KeySize bytes of b.
func (c Codec[K]) PutKey(b []byte, k K) {
	u := uint64(k)
	for i := c.KeySize() - 1; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
}

// Key decodes the key from the first KeySize bytes of b.
func (c Codec[K]) Key(b []byte) K {
	var u uint64
	for i := 0; i < c.KeySize(); i++ {
		u = u<<8 | uint64(b[i])
	}
	return K(u)
}

// AppendRecord appends the encoding of (k, v) to dst and returns the extended
// slice. The value must be exactly ValueSize bytes.
func (c Codec[K]) AppendRecord(dst []byte, k K, v []byte) ([]byte, error) {
	if len(v) != c.valueSize {
		return dst, errors.Newf("rec: value is %d bytes, schema requires %d", len(v), c.valueSize)
	}
	var kb [8]byte
	c.PutKey(kb[:], k)
	dst = append(dst, kb[:c.KeySize()]...)
	dst = append(dst, v...)
	return dst, nil
}

// NullValue returns a fresh zero-filled value. Synthetic records produced by
// densification carry this value. It is not distinguishable from a real
// all-zero value; callers that need the distinction must track it themselves.
func (c Codec[K]) NullValue() []byte {
	return make([]byte, c.valueSize)
}
