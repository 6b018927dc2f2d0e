// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// Index freezes the store for querying: it sorts, pads the key space dense,
// then scans once to mark the first record of every key in a presence bitmap,
// which is compressed with select support. maxKey is recorded as the key of
// the last sorted record. O(n log n) overall, dominated by sorting.
func (m *Multimap[K]) Index() error {
	start := time.Now()
	if err := m.Sort(); err != nil {
		return err
	}
	if err := m.Pad(); err != nil {
		return err
	}
	n, err := m.RecordCount()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrap(ErrInvariant, "index on an empty store")
	}

	rs := int64(m.codec.RecordSize())
	f, err := os.Open(m.path)
	if err != nil {
		return err
	}
	defer f.Close()
	br := bufio.NewReaderSize(f, 1<<20)

	bits := make([]bool, n)
	recBuf := make([]byte, rs)
	var last K
	for i := int64(0); i < n; i++ {
		if _, err := io.ReadFull(br, recBuf); err != nil {
			return errors.Wrapf(err, "dmmap: reading record %d of %q", i, m.path)
		}
		key := m.codec.Key(recBuf)
		if i == 0 || key != last {
			bits[i] = true
			last = key
		}
	}

	bv, err := m.opts.BitIndex.Build(bits)
	if err != nil {
		return errors.Wrap(err, "dmmap: compressing presence bitmap")
	}
	m.bv = bv
	m.maxKey = last
	m.state = stateIndexed
	if m.cache != nil {
		m.cache.Clear()
	}
	if h := m.opts.BuildLatency; h != nil {
		h.Observe(time.Since(start).Seconds())
	}
	m.opts.Logger.Infof("dmmap: indexed %q: %d records, %d keys, max key %d (%s)",
		m.path, n, bv.Ones(), uint64(m.maxKey), time.Since(start))
	return nil
}
