// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Values returns every value recorded for key, in on-disk order. The store
// must be indexed and key must lie in [0, maxKey]. Keys that were never
// appended resolve to a single zero-filled null value, so the result is never
// empty. The returned slices are the caller's to keep and mutate.
//
// Rank convention: presence bit i marks the first record of the (i+1)-th
// distinct key, and after padding the distinct keys are exactly 0..maxKey in
// order. The run of key k therefore starts at Select1(k+1) and ends at
// Select1(k+2), or at the record count when k == maxKey.
func (m *Multimap[K]) Values(key K) ([][]byte, error) {
	if m.state != stateIndexed || m.bv == nil {
		return nil, errors.Wrapf(ErrInvariant, "values query before index (state %s)", m.state)
	}
	if key > m.maxKey {
		return nil, errors.Wrapf(ErrKeyOutOfRange,
			"key %d outside [0, %d]", uint64(key), uint64(m.maxKey))
	}
	start := time.Now()
	if m.cache != nil {
		if cached, ok := m.cache.Get(uint64(key)); ok {
			if h := m.opts.QueryLatency; h != nil {
				h.Observe(time.Since(start).Seconds())
			}
			return copyValues(cached, m.codec.ValueSize()), nil
		}
	}

	lo, err := m.bv.Select1(int(key) + 1)
	if err != nil {
		return nil, errors.Wrapf(ErrInvariant, "%v", err)
	}
	hi := m.bv.Len()
	if key < m.maxKey {
		hi, err = m.bv.Select1(int(key) + 2)
		if err != nil {
			return nil, errors.Wrapf(ErrInvariant, "%v", err)
		}
	}

	rs := m.codec.RecordSize()
	ks := m.codec.KeySize()
	buf := make([]byte, (hi-lo)*rs)
	if err := m.openReader(); err != nil {
		return nil, err
	}
	if _, err := m.reader.ReadAt(buf, int64(lo)*int64(rs)); err != nil {
		return nil, errors.Wrapf(err, "dmmap: reading records [%d, %d) of %q", lo, hi, m.path)
	}
	vals := make([][]byte, 0, hi-lo)
	for i := 0; i < hi-lo; i++ {
		r := buf[i*rs : (i+1)*rs : (i+1)*rs]
		vals = append(vals, r[ks:])
	}
	if m.cache != nil {
		// The cache keeps the canonical bytes; hand the caller a copy so
		// mutating a result cannot corrupt later hits.
		m.cache.Set(uint64(key), vals, int64(len(buf)))
		vals = copyValues(vals, m.codec.ValueSize())
	}
	if h := m.opts.QueryLatency; h != nil {
		h.Observe(time.Since(start).Seconds())
	}
	return vals, nil
}

func copyValues(vals [][]byte, width int) [][]byte {
	buf := make([]byte, len(vals)*width)
	out := make([][]byte, len(vals))
	for i, v := range vals {
		c := buf[i*width : (i+1)*width : (i+1)*width]
		copy(c, v)
		out[i] = c
	}
	return out
}

// MaxKey returns the largest key in the indexed domain. Valid only once the
// store is indexed.
func (m *Multimap[K]) MaxKey() (K, error) {
	if m.state != stateIndexed {
		return 0, errors.Wrapf(ErrInvariant, "max key before index (state %s)", m.state)
	}
	return m.maxKey, nil
}
