// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// Pad densifies the key space: after Pad, every integer in [0, maxKey] has at
// least one record. Gaps are filled with synthetic (key, NullValue) records
// appended to the end of the file and merged into position by a re-sort. The
// store must already be sorted and non-empty.
//
// Cost scales with the size of the key domain, not the record count: padding
// a store whose largest key is huge but sparse writes one record per missing
// integer.
func (m *Multimap[K]) Pad() error {
	switch m.state {
	case stateDensified, stateIndexed:
		return nil
	case stateSorted:
	default:
		return errors.Wrapf(ErrInvariant, "pad requires a sorted store (state %s)", m.state)
	}
	n, err := m.RecordCount()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrap(ErrInvariant, "pad on an empty store")
	}

	rs := int64(m.codec.RecordSize())
	src, err := os.Open(m.path)
	if err != nil {
		return err
	}
	defer src.Close()
	// Bound the scan to the original records; synthetic appends land beyond
	// the limit and must not be re-read.
	br := bufio.NewReaderSize(io.LimitReader(src, n*rs), 1<<20)

	dst, err := os.OpenFile(m.path, os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	defer dst.Close()
	bw := bufio.NewWriterSize(dst, 1<<20)

	null := m.codec.NullValue()
	recBuf := make([]byte, rs)
	var synthBuf []byte
	var prev uint64
	first := true
	var synthetic int64
	for i := int64(0); i < n; i++ {
		if _, err := io.ReadFull(br, recBuf); err != nil {
			return errors.Wrapf(err, "dmmap: reading record %d of %q", i, m.path)
		}
		curr := uint64(m.codec.Key(recBuf))
		from := prev + 1
		if first {
			from = 0
			first = false
		}
		for k := from; k < curr; k++ {
			synthBuf, err = m.codec.AppendRecord(synthBuf[:0], K(k), null)
			if err != nil {
				return err
			}
			if _, err := bw.Write(synthBuf); err != nil {
				return err
			}
			synthetic++
		}
		prev = curr
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	if synthetic > 0 {
		m.opts.Logger.Infof("dmmap: padded %q with %d synthetic records", m.path, synthetic)
		if err := m.sortFile(); err != nil {
			return err
		}
	}
	m.state = stateDensified
	return nil
}
