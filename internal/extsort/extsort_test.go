// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package extsort

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records")
	require.NoError(t, os.WriteFile(path, data, 0666))
	return path
}

func randomRecords(rng *rand.Rand, n, recordSize, keyBytes int) []byte {
	data := make([]byte, n*recordSize)
	rng.Read(data)
	// Small key alphabet forces plenty of equal keys and deep recursion.
	for i := 0; i < n; i++ {
		for j := 0; j < keyBytes; j++ {
			data[i*recordSize+j] = byte(rng.Intn(4))
		}
	}
	return data
}

// sortedRecords returns the records of data lexicographically sorted whole,
// for order-insensitive comparison of two sorters' outputs.
func sortedRecords(data []byte, recordSize int) [][]byte {
	n := len(data) / recordSize
	records := make([][]byte, n)
	for i := range records {
		records[i] = data[i*recordSize : (i+1)*recordSize]
	}
	sort.Slice(records, func(i, j int) bool { return bytes.Compare(records[i], records[j]) < 0 })
	return records
}

func requireKeySorted(t *testing.T, data []byte, recordSize, keySize int) {
	t.Helper()
	n := len(data) / recordSize
	for i := 1; i < n; i++ {
		prev := data[(i-1)*recordSize : (i-1)*recordSize+keySize]
		curr := data[i*recordSize : i*recordSize+keySize]
		require.LessOrEqual(t, bytes.Compare(prev, curr), 0, "record %d out of order", i)
	}
}

func TestRadixMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(uint64(1)))
	geometries := []struct {
		recordSize, keySize, n int
	}{
		{recordSize: 4, keySize: 2, n: 100},
		{recordSize: 10, keySize: 8, n: 1000},
		{recordSize: 3, keySize: 3, n: 257},
		{recordSize: 16, keySize: 4, n: 1},
	}
	for _, g := range geometries {
		input := randomRecords(rng, g.n, g.recordSize, g.keySize)

		radixPath := writeFile(t, input)
		require.NoError(t, Radix{}.Sort(radixPath, g.recordSize, g.keySize))
		radixOut, err := os.ReadFile(radixPath)
		require.NoError(t, err)

		refPath := writeFile(t, input)
		require.NoError(t, Reference{}.Sort(refPath, g.recordSize, g.keySize))
		refOut, err := os.ReadFile(refPath)
		require.NoError(t, err)

		requireKeySorted(t, radixOut, g.recordSize, g.keySize)
		requireKeySorted(t, refOut, g.recordSize, g.keySize)
		// The sorters need not agree on the order of equal keys, but must
		// produce the same multiset of records.
		require.Equal(t,
			sortedRecords(refOut, g.recordSize),
			sortedRecords(radixOut, g.recordSize))
		require.Equal(t, sortedRecords(input, g.recordSize), sortedRecords(radixOut, g.recordSize))
	}
}

func TestRadixIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(uint64(2)))
	input := randomRecords(rng, 500, 6, 4)
	path := writeFile(t, input)

	require.NoError(t, Radix{}.Sort(path, 6, 4))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Radix{}.Sort(path, 6, 4))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEmptyFile(t *testing.T) {
	path := writeFile(t, nil)
	require.NoError(t, Radix{}.Sort(path, 8, 4))
	require.NoError(t, Reference{}.Sort(path, 8, 4))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestUnalignedFile(t *testing.T) {
	path := writeFile(t, []byte{1, 2, 3, 4, 5})
	require.Error(t, Radix{}.Sort(path, 4, 2))
	require.Error(t, Reference{}.Sort(path, 4, 2))
}

func TestBadGeometry(t *testing.T) {
	path := writeFile(t, make([]byte, 8))
	require.Error(t, Radix{}.Sort(path, 4, 5))
	require.Error(t, Radix{}.Sort(path, 0, 0))
}

func TestCutOffVariants(t *testing.T) {
	rng := rand.New(rand.NewSource(uint64(3)))
	input := randomRecords(rng, 300, 5, 3)
	for _, cutOff := range []int{1, 2, 16, 1000} {
		path := writeFile(t, input)
		r := Radix{Opts: Options{CutOff: cutOff}}
		require.NoError(t, r.Sort(path, 5, 3))
		out, err := os.ReadFile(path)
		require.NoError(t, err)
		requireKeySorted(t, out, 5, 3)
		require.Equal(t, sortedRecords(input, 5), sortedRecords(out, 5))
	}
}
