// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import (
	"io"

	"github.com/dmmap/dmmap/internal/extsort"
	"github.com/dmmap/dmmap/internal/sbv"
	"github.com/prometheus/client_golang/prometheus"
)

// BitIndex is the compressed presence bitmap consulted by queries. Bit i is
// set iff sorted record i is the first record of its key; Select1 uses
// 1-based ranks, so the run of key k starts at Select1(k+1).
type BitIndex interface {
	// Len returns the number of bits, equal to the record count at the time
	// the index was built.
	Len() int
	// Ones returns the number of set bits, equal to the number of distinct
	// keys.
	Ones() int
	// Select1 returns the position of the rank-th set bit, rank 1-based.
	Select1(rank int) (int, error)
	// WriteTo serializes the bitmap and its select support.
	WriteTo(w io.Writer) (int64, error)
}

// BitIndexBuilder constructs and deserializes BitIndex values. The default
// implementation is the rank-sampled bitvector in internal/sbv; tests may
// substitute their own.
type BitIndexBuilder interface {
	// Build compresses a dense boolean sequence.
	Build(bits []bool) (BitIndex, error)
	// Decode deserializes a bitmap from the front of data, returning the
	// number of bytes consumed.
	Decode(data []byte) (BitIndex, int, error)
}

type sbvBuilder struct{}

func (sbvBuilder) Build(bits []bool) (BitIndex, error) {
	return sbv.Build(bits), nil
}

func (sbvBuilder) Decode(data []byte) (BitIndex, int, error) {
	v, n, err := sbv.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	return v, n, nil
}

// Options holds the per-instance configuration. ValueSize is required;
// everything else has a usable default.
type Options struct {
	// ValueSize is the fixed width of every value, in bytes. The record
	// width is the key width plus ValueSize, and is fixed for the lifetime
	// of the backing file.
	ValueSize int

	// Sorter reorders the backing file ascending by key bytes. Defaults to
	// the in-place mmap radix sorter.
	Sorter extsort.Sorter

	// SortOptions tunes the default radix sorter. Ignored if Sorter is set.
	SortOptions extsort.Options

	// BitIndex builds the compressed presence bitmap. Defaults to the
	// rank-sampled bitvector in internal/sbv.
	BitIndex BitIndexBuilder

	// Logger for build and load events. Defaults to DefaultLogger.
	Logger Logger

	// CacheSize bounds an in-memory cache of query results, in bytes. Zero
	// disables the cache.
	CacheSize int64

	// BuildLatency, if set, records the wall time of each Index call, in
	// seconds.
	BuildLatency prometheus.Histogram

	// QueryLatency, if set, records the wall time of each Values call, in
	// seconds.
	QueryLatency prometheus.Histogram
}

// EnsureDefaults fills unset fields with default values, returning the
// receiver for chaining. A nil receiver yields fresh default options (with
// ValueSize still unset, which Open rejects).
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Sorter == nil {
		o.Sorter = extsort.Radix{Opts: o.SortOptions}
	}
	if o.BitIndex == nil {
		o.BitIndex = sbvBuilder{}
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	return o
}
