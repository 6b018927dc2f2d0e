// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package sbv

import (
	"bytes"
	"fmt"
	"testing"
	"unicode"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestSelectFixed(t *testing.T) {
	var v *Vector
	var buf bytes.Buffer
	datadriven.RunTest(t, "testdata/select", func(t *testing.T, td *datadriven.TestData) string {
		buf.Reset()
		switch td.Cmd {
		case "build":
			var bits []bool
			for _, r := range td.Input {
				if unicode.IsSpace(r) {
					continue
				}
				bits = append(bits, r == '1')
			}
			v = Build(bits)
			fmt.Fprintf(&buf, "n=%d ones=%d\n", v.Len(), v.Ones())
			return buf.String()
		case "select":
			var ranks []int
			td.ScanArgs(t, "ranks", &ranks)
			for _, r := range ranks {
				pos, err := v.Select1(r)
				if err != nil {
					fmt.Fprintf(&buf, "select(%d) = error: %v\n", r, err)
					continue
				}
				fmt.Fprintf(&buf, "select(%d) = %d\n", r, pos)
			}
			return buf.String()
		default:
			panic(fmt.Sprintf("unknown command: %s", td.Cmd))
		}
	})
}

// naiveSelect scans the bits for the rank-th set bit, 1-based.
func naiveSelect(bits []bool, rank int) (int, bool) {
	for i, set := range bits {
		if set {
			rank--
			if rank == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func TestSelectRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(uint64(42)))
	for _, density := range []float64{0.01, 0.1, 0.5, 0.9, 1.0} {
		for _, n := range []int{1, 63, 64, 65, 512, 513, 10000} {
			bits := make([]bool, n)
			for i := range bits {
				bits[i] = rng.Float64() < density
			}
			v := Build(bits)
			for r := 1; r <= v.Ones(); r++ {
				want, ok := naiveSelect(bits, r)
				require.True(t, ok)
				got, err := v.Select1(r)
				require.NoError(t, err)
				require.Equal(t, want, got, "n=%d density=%g rank=%d", n, density, r)
			}
			_, err := v.Select1(0)
			require.Error(t, err)
			_, err = v.Select1(v.Ones() + 1)
			require.Error(t, err)
		}
	}
}

func TestBuilderSet(t *testing.T) {
	b := NewBuilder(100)
	b.Set(0)
	b.Set(0) // setting twice must not double count
	b.Set(99)
	v := b.Finish()
	require.Equal(t, 2, v.Ones())
	require.True(t, v.Get(0))
	require.True(t, v.Get(99))
	require.False(t, v.Get(50))

	pos, err := v.Select1(1)
	require.NoError(t, err)
	require.Equal(t, 0, pos)
	pos, err = v.Select1(2)
	require.NoError(t, err)
	require.Equal(t, 99, pos)
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(uint64(7)))
	for _, n := range []int{1, 64, 1000, 5000} {
		bits := make([]bool, n)
		for i := range bits {
			bits[i] = rng.Float64() < 0.3
		}
		v := Build(bits)

		var buf bytes.Buffer
		written, err := v.WriteTo(&buf)
		require.NoError(t, err)
		require.Equal(t, int64(buf.Len()), written)

		got, consumed, err := Decode(buf.Bytes())
		require.NoError(t, err)
		require.Equal(t, buf.Len(), consumed)
		require.Equal(t, v.Len(), got.Len())
		require.Equal(t, v.Ones(), got.Ones())
		for r := 1; r <= v.Ones(); r++ {
			wantPos, err := v.Select1(r)
			require.NoError(t, err)
			gotPos, err := got.Select1(r)
			require.NoError(t, err)
			require.Equal(t, wantPos, gotPos)
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	v := Build([]bool{true, false, true, true, false})
	var buf bytes.Buffer
	_, err := v.WriteTo(&buf)
	require.NoError(t, err)
	enc := buf.Bytes()

	t.Run("bit flip", func(t *testing.T) {
		bad := append([]byte(nil), enc...)
		bad[len(bad)/2] ^= 0x01
		_, _, err := Decode(bad)
		require.ErrorIs(t, err, ErrCorrupt)
	})
	t.Run("truncated", func(t *testing.T) {
		_, _, err := Decode(enc[:len(enc)-1])
		require.ErrorIs(t, err, ErrCorrupt)
	})
	t.Run("empty", func(t *testing.T) {
		_, _, err := Decode(nil)
		require.ErrorIs(t, err, ErrCorrupt)
	})
}
