// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import (
	"bytes"
	"encoding/binary"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// Sidecar index file layout, integers little-endian:
//
//	offset  width  field
//	     0      8  magic "dmmapidx"
//	     8      4  format version (uint32)
//	    12      8  record width in bytes (uint64)
//	    20      8  record count (uint64)
//	    28      8  max key (uint64)
//	    36      -  serialized presence bitmap and select support
//
// The header fields exist to validate the sidecar against the live backing
// file before the bitmap is trusted; the bitmap encoding carries its own
// checksum.
var indexMagic = [8]byte{'d', 'm', 'm', 'a', 'p', 'i', 'd', 'x'}

const (
	indexFormatVersion uint32 = 1
	indexHeaderSize           = 36
)

// Save writes the index metadata and compressed bitmap to the sidecar file,
// replacing any previous sidecar. The store must be indexed and non-empty.
// Returns the number of bytes written.
func (m *Multimap[K]) Save() (int64, error) {
	if m.state != stateIndexed || m.bv == nil {
		return 0, errors.Wrapf(ErrInvariant, "save before index (state %s)", m.state)
	}
	n, err := m.RecordCount()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.Wrap(ErrInvariant, "save with a degenerate key domain")
	}

	header := make([]byte, 0, indexHeaderSize)
	header = append(header, indexMagic[:]...)
	header = binary.LittleEndian.AppendUint32(header, indexFormatVersion)
	header = binary.LittleEndian.AppendUint64(header, uint64(m.codec.RecordSize()))
	header = binary.LittleEndian.AppendUint64(header, uint64(n))
	header = binary.LittleEndian.AppendUint64(header, uint64(m.maxKey))

	f, err := os.Create(m.indexPath)
	if err != nil {
		return 0, err
	}
	written := int64(0)
	hn, err := f.Write(header)
	written += int64(hn)
	if err != nil {
		_ = f.Close()
		return written, err
	}
	bn, err := m.bv.WriteTo(f)
	written += bn
	if err != nil {
		_ = f.Close()
		return written, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return written, err
	}
	if err := f.Close(); err != nil {
		return written, err
	}
	m.opts.Logger.Infof("dmmap: saved index %q (%d bytes)", m.indexPath, written)
	return written, nil
}

// Load reads the sidecar index file and validates it, in order: magic, format
// version, record width, record count against the live backing file, and max
// key against the live file's last record. Only then is the bitmap
// deserialized and the store marked indexed.
func (m *Multimap[K]) Load() error {
	start := time.Now()
	n, err := m.RecordCount()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(m.indexPath)
	if err != nil {
		return err
	}
	if len(data) < indexHeaderSize {
		return errors.Wrapf(ErrFormatMismatch,
			"sidecar %q truncated at %d bytes", m.indexPath, len(data))
	}
	if !bytes.Equal(data[:8], indexMagic[:]) {
		return errors.Wrapf(ErrFormatMismatch,
			"sidecar %q has magic %q, want %q", m.indexPath, data[:8], indexMagic[:])
	}
	if version := binary.LittleEndian.Uint32(data[8:]); version != indexFormatVersion {
		return errors.Wrapf(ErrFormatMismatch,
			"sidecar %q has format version %d, want %d", m.indexPath, version, indexFormatVersion)
	}
	if rs := binary.LittleEndian.Uint64(data[12:]); rs != uint64(m.codec.RecordSize()) {
		return errors.Wrapf(ErrSchemaMismatch,
			"sidecar %q record width %d, configured %d", m.indexPath, rs, m.codec.RecordSize())
	}
	if count := binary.LittleEndian.Uint64(data[20:]); count != uint64(n) {
		return errors.Wrapf(ErrStaleIndex,
			"sidecar %q holds %d records, backing file holds %d", m.indexPath, count, n)
	}
	maxKey := binary.LittleEndian.Uint64(data[28:])
	lastKey, err := m.NthKey(n - 1)
	if err != nil {
		return err
	}
	if maxKey != uint64(lastKey) {
		return errors.Wrapf(ErrStaleIndex,
			"sidecar %q max key %d, backing file ends at key %d", m.indexPath, maxKey, uint64(lastKey))
	}

	bv, consumed, err := m.opts.BitIndex.Decode(data[indexHeaderSize:])
	if err != nil {
		return errors.Wrapf(ErrFormatMismatch, "sidecar %q: %v", m.indexPath, err)
	}
	if indexHeaderSize+consumed != len(data) {
		return errors.Wrapf(ErrFormatMismatch,
			"sidecar %q has %d trailing bytes", m.indexPath, len(data)-indexHeaderSize-consumed)
	}
	if bv.Len() != int(n) {
		return errors.Wrapf(ErrFormatMismatch,
			"sidecar %q bitmap covers %d records, backing file holds %d", m.indexPath, bv.Len(), n)
	}

	m.bv = bv
	m.maxKey = K(maxKey)
	m.state = stateIndexed
	if m.cache != nil {
		m.cache.Clear()
	}
	m.opts.Logger.Infof("dmmap: loaded index %q: %d records, %d keys (%s)",
		m.indexPath, n, bv.Ones(), time.Since(start))
	return nil
}
