// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package dmmap implements a disk-backed multimap from a dense numeric key
// space to fixed-width values.
//
// Records are accumulated by appending to a binary backing file. Once all
// records are appended, Index freezes the structure: the file is sorted in
// place ascending by key, the key space is padded so every integer in
// [0, maxKey] has at least one record, and a compressed bitvector marking the
// first record of each key is built with select support. Queries then resolve
// a key to its run of records with a single select lookup and read the values
// directly, in near-constant time.
//
// The index can be persisted to a sidecar file alongside the backing file and
// reloaded later; loading validates the sidecar against the live backing file
// before trusting it.
//
// A Multimap is single-writer, single-reader and performs no internal
// locking. Appending after Index invalidates the index; the caller must
// rebuild before querying again.
package dmmap

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/dmmap/dmmap/internal/rec"
	"golang.org/x/exp/constraints"
)

// state tracks the multimap's lifecycle. Operations validate the state they
// require and transition it, rather than relying on ambient flags.
type state uint8

const (
	stateUnopened state = iota
	stateWriting
	stateReading
	stateSorted
	stateDensified
	stateIndexed
)

func (s state) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateWriting:
		return "writing"
	case stateReading:
		return "reading"
	case stateSorted:
		return "sorted"
	case stateDensified:
		return "densified"
	case stateIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// Multimap is a disk-backed multimap from keys of unsigned integer type K to
// fixed-width byte values. The zero value is not usable; construct with Open.
type Multimap[K constraints.Unsigned] struct {
	opts      *Options
	codec     rec.Codec[K]
	path      string
	indexPath string

	state  state
	writer *os.File
	reader *os.File

	maxKey K
	bv     BitIndex

	cache *ristretto.Cache[uint64, [][]byte]

	appendBuf []byte
}

// Open returns a Multimap over the backing file at path. The file need not
// exist yet; it is created by the first append. Options.ValueSize must be
// set.
func Open[K constraints.Unsigned](path string, opts *Options) (*Multimap[K], error) {
	opts = opts.EnsureDefaults()
	codec, err := rec.MakeCodec[K](opts.ValueSize)
	if err != nil {
		return nil, errors.Wrapf(ErrInvariant, "%v", err)
	}
	m := &Multimap[K]{opts: opts, codec: codec}
	m.SetBaseFile(path)
	if opts.CacheSize > 0 {
		numCounters := opts.CacheSize / 64
		if numCounters < 1024 {
			numCounters = 1024
		}
		cache, err := ristretto.NewCache(&ristretto.Config[uint64, [][]byte]{
			NumCounters: numCounters,
			MaxCost:     opts.CacheSize,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		m.cache = cache
	}
	return m, nil
}

// Load opens the multimap at path and loads its persisted index, validating
// it against the live backing file.
func Load[K constraints.Unsigned](path string, opts *Options) (*Multimap[K], error) {
	m, err := Open[K](path, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetBaseFile points the multimap at a backing file and derives the sidecar
// index path from it. Any open handles and any built index are dropped.
func (m *Multimap[K]) SetBaseFile(path string) {
	m.closeHandles()
	m.path = path
	m.indexPath = path + ".idx"
	m.state = stateUnopened
	m.bv = nil
	m.maxKey = 0
	if m.cache != nil {
		m.cache.Clear()
	}
}

// IndexPath returns the sidecar file path used by Save and Load.
func (m *Multimap[K]) IndexPath() string { return m.indexPath }

// RecordSize returns the width of one encoded record in bytes.
func (m *Multimap[K]) RecordSize() int { return m.codec.RecordSize() }

// OpenWriter opens the append handle, creating the backing file if needed.
// Opening the writer drops any built index: the store is mutable again and
// must be re-indexed before further queries.
func (m *Multimap[K]) OpenWriter() error {
	if m.path == "" {
		return errors.Wrap(ErrInvariant, "no base file set")
	}
	if m.writer == nil {
		f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		m.writer = f
	}
	m.state = stateWriting
	m.bv = nil
	if m.cache != nil {
		m.cache.Clear()
	}
	return nil
}

// CloseWriter closes the append handle. No-op if it is not open.
func (m *Multimap[K]) CloseWriter() error {
	if m.writer == nil {
		return nil
	}
	err := m.writer.Close()
	m.writer = nil
	return err
}

// CloseReader closes the read handle. No-op if it is not open.
func (m *Multimap[K]) CloseReader() error {
	if m.reader == nil {
		return nil
	}
	err := m.reader.Close()
	m.reader = nil
	return err
}

// Close releases all resources. The multimap must not be used afterwards.
func (m *Multimap[K]) Close() error {
	err := errors.CombineErrors(m.CloseWriter(), m.CloseReader())
	if m.cache != nil {
		m.cache.Close()
		m.cache = nil
	}
	return err
}

func (m *Multimap[K]) closeHandles() {
	_ = m.CloseWriter()
	_ = m.CloseReader()
}

func (m *Multimap[K]) openReader() error {
	if m.reader != nil {
		return nil
	}
	if m.path == "" {
		return errors.Wrap(ErrInvariant, "no base file set")
	}
	f, err := os.Open(m.path)
	if err != nil {
		return err
	}
	m.reader = f
	if m.state == stateUnopened {
		m.state = stateReading
	}
	return nil
}

// Append writes one record to the end of the backing file. The writer must
// be open and the value must be exactly ValueSize bytes. Appending
// invalidates any previous sort or index.
func (m *Multimap[K]) Append(key K, value []byte) error {
	if m.writer == nil {
		return errors.Wrap(ErrInvariant, "append without an open writer")
	}
	buf, err := m.codec.AppendRecord(m.appendBuf[:0], key, value)
	if err != nil {
		return errors.Wrapf(ErrInvariant, "%v", err)
	}
	m.appendBuf = buf
	if _, err := m.writer.Write(buf); err != nil {
		return err
	}
	m.state = stateWriting
	m.bv = nil
	return nil
}

// RecordCount returns the number of records in the backing file. It fails
// with ErrInvariant if the file length is not a multiple of the record width.
func (m *Multimap[K]) RecordCount() (int64, error) {
	if m.path == "" {
		return 0, errors.Wrap(ErrInvariant, "no base file set")
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return 0, err
	}
	rs := int64(m.codec.RecordSize())
	if info.Size()%rs != 0 {
		return 0, errors.Wrapf(ErrInvariant,
			"file %q length %d is not a multiple of record width %d", m.path, info.Size(), rs)
	}
	return info.Size() / rs, nil
}

// NthKey returns the key of the i-th record in on-disk order.
func (m *Multimap[K]) NthKey(i int64) (K, error) {
	b, err := m.readAt(i, 0, m.codec.KeySize())
	if err != nil {
		return 0, err
	}
	return m.codec.Key(b), nil
}

// NthValue returns the value of the i-th record in on-disk order.
func (m *Multimap[K]) NthValue(i int64) ([]byte, error) {
	return m.readAt(i, m.codec.KeySize(), m.codec.ValueSize())
}

func (m *Multimap[K]) readAt(i int64, off, n int) ([]byte, error) {
	count, err := m.RecordCount()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= count {
		return nil, errors.Wrapf(ErrInvariant, "record %d outside [0, %d)", i, count)
	}
	if err := m.openReader(); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := m.reader.ReadAt(b, i*int64(m.codec.RecordSize())+int64(off)); err != nil {
		return nil, err
	}
	return b, nil
}
