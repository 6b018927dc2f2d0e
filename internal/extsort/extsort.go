// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package extsort sorts a file of fixed-width records in place, ordering
// records ascending by their leading key bytes. The byte ordering of the key
// prefix must agree with the desired logical ordering; the record codec
// guarantees this by encoding keys big-endian.
package extsort

import (
	"bytes"

	"github.com/cockroachdb/errors"
)

// Sorter reorders the record file at path in place, ascending by the leading
// keySize bytes of each recordSize-byte record. Implementations need not be
// stable across records with equal keys.
type Sorter interface {
	Sort(path string, recordSize, keySize int) error
}

// Options tunes the Radix sorter.
type Options struct {
	// CutOff is the partition size, in records, at or below which the sorter
	// falls back to insertion sort instead of recursing.
	CutOff int
	// StackSize is the initial capacity of the partition stack.
	StackSize int
}

// EnsureDefaults replaces zero-valued fields with their defaults and returns
// the updated options.
func (o Options) EnsureDefaults() Options {
	if o.CutOff <= 0 {
		o.CutOff = 4
	}
	if o.StackSize <= 0 {
		o.StackSize = 12
	}
	return o
}

func validate(size int64, recordSize, keySize int) error {
	if recordSize <= 0 || keySize <= 0 || keySize > recordSize {
		return errors.Newf("extsort: bad record geometry (record %d, key %d)", recordSize, keySize)
	}
	if size%int64(recordSize) != 0 {
		return errors.Newf("extsort: file length %d is not a multiple of record width %d", size, recordSize)
	}
	return nil
}

// sortRecords sorts the records in data in place. data length must be a
// multiple of recordSize. Partitioning is an American-flag byte radix over
// the key prefix with an insertion-sort cutoff for small partitions.
func sortRecords(data []byte, recordSize, keySize int, opts Options) {
	type partition struct {
		start, n, depth int
	}
	tmp := make([]byte, recordSize)
	swap := func(i, j int) {
		if i == j {
			return
		}
		a, b := data[i*recordSize:(i+1)*recordSize], data[j*recordSize:(j+1)*recordSize]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}

	stack := make([]partition, 0, opts.StackSize)
	stack = append(stack, partition{start: 0, n: len(data) / recordSize, depth: 0})
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.n < 2 || p.depth >= keySize {
			continue
		}
		if p.n <= opts.CutOff {
			insertionSort(data, recordSize, keySize, p.start, p.n, p.depth)
			continue
		}

		var counts [256]int
		for i := p.start; i < p.start+p.n; i++ {
			counts[data[i*recordSize+p.depth]]++
		}
		var head, tail [256]int
		sum := p.start
		for b := 0; b < 256; b++ {
			head[b] = sum
			sum += counts[b]
			tail[b] = sum
		}
		// Permute each record into its bucket. A record swapped into place
		// displaces another, which is in turn routed to its own bucket, so
		// every record moves at most once.
		for b := 0; b < 256; b++ {
			for head[b] < tail[b] {
				i := head[b]
				c := int(data[i*recordSize+p.depth])
				if c == b {
					head[b]++
					continue
				}
				swap(i, head[c])
				head[c]++
			}
		}
		start := p.start
		for b := 0; b < 256; b++ {
			if counts[b] > 1 {
				stack = append(stack, partition{start: start, n: counts[b], depth: p.depth + 1})
			}
			start += counts[b]
		}
	}
}

func insertionSort(data []byte, recordSize, keySize, start, n, depth int) {
	tmp := make([]byte, recordSize)
	key := func(i int) []byte {
		return data[i*recordSize+depth : i*recordSize+keySize]
	}
	for i := start + 1; i < start+n; i++ {
		for j := i; j > start && bytes.Compare(key(j), key(j-1)) < 0; j-- {
			a, b := data[j*recordSize:(j+1)*recordSize], data[(j-1)*recordSize:j*recordSize]
			copy(tmp, a)
			copy(a, b)
			copy(b, tmp)
		}
	}
}
