// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package rec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestCodecWidths(t *testing.T) {
	c8, err := MakeCodec[uint8](3)
	require.NoError(t, err)
	require.Equal(t, 1, c8.KeySize())
	require.Equal(t, 4, c8.RecordSize())

	c16, err := MakeCodec[uint16](3)
	require.NoError(t, err)
	require.Equal(t, 2, c16.KeySize())

	c32, err := MakeCodec[uint32](5)
	require.NoError(t, err)
	require.Equal(t, 4, c32.KeySize())
	require.Equal(t, 9, c32.RecordSize())

	c64, err := MakeCodec[uint64](8)
	require.NoError(t, err)
	require.Equal(t, 8, c64.KeySize())
	require.Equal(t, 16, c64.RecordSize())

	_, err = MakeCodec[uint64](0)
	require.Error(t, err)
}

func TestKeyRoundtrip(t *testing.T) {
	c, err := MakeCodec[uint32](1)
	require.NoError(t, err)
	for _, k := range []uint32{0, 1, 255, 256, 1<<16 - 1, 1 << 24, 1<<32 - 1} {
		var b [4]byte
		c.PutKey(b[:], k)
		require.Equal(t, k, c.Key(b[:]))
	}
}

// The sorter orders records by comparing raw key bytes, so the encoding must
// make byte order agree with numeric order.
func TestKeyBytesOrderMatchesNumericOrder(t *testing.T) {
	c, err := MakeCodec[uint64](1)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	var a, b [8]byte
	for i := 0; i < 1000; i++ {
		x, y := rng.Uint64(), rng.Uint64()
		c.PutKey(a[:], x)
		c.PutKey(b[:], y)
		switch {
		case x < y:
			require.Negative(t, bytes.Compare(a[:], b[:]))
		case x > y:
			require.Positive(t, bytes.Compare(a[:], b[:]))
		default:
			require.Equal(t, a, b)
		}
	}
}

func TestAppendRecord(t *testing.T) {
	c, err := MakeCodec[uint16](3)
	require.NoError(t, err)
	buf, err := c.AppendRecord(nil, 0x0102, []byte{0xaa, 0xbb, 0xcc})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0xaa, 0xbb, 0xcc}, buf)

	_, err = c.AppendRecord(nil, 1, []byte{0xaa})
	require.Error(t, err)
}

func TestNullValue(t *testing.T) {
	c, err := MakeCodec[uint8](4)
	require.NoError(t, err)
	null := c.NullValue()
	require.Equal(t, []byte{0, 0, 0, 0}, null)
	// Fresh allocation each time; mutating one must not leak into the next.
	null[0] = 1
	require.Equal(t, []byte{0, 0, 0, 0}, c.NullValue())
}
