// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import "github.com/cockroachdb/errors"

// Sort reorders the backing file in place, ascending by key. A no-op if the
// store is already sorted; re-invoking never changes file contents. The
// relative order of records with equal keys is not specified.
func (m *Multimap[K]) Sort() error {
	switch m.state {
	case stateSorted, stateDensified, stateIndexed:
		return nil
	}
	if err := m.sortFile(); err != nil {
		return err
	}
	m.state = stateSorted
	return nil
}

// sortFile runs the sorter unconditionally. The in-place rewrite invalidates
// open handles, so both are closed first.
func (m *Multimap[K]) sortFile() error {
	// Surfaces a missing file or an unaligned length before the sorter runs.
	if _, err := m.RecordCount(); err != nil {
		return err
	}
	m.closeHandles()
	if err := m.opts.Sorter.Sort(m.path, m.codec.RecordSize(), m.codec.KeySize()); err != nil {
		return errors.Wrapf(err, "dmmap: sorting %q", m.path)
	}
	return nil
}
