// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import "github.com/cockroachdb/errors"

// Errors returned by the multimap. Each sentinel is the root of the returned
// error's chain, wrapped with context (paths, widths, counts) via
// errors.Wrapf, so errors.Is matches them whether the caller uses the
// standard library or cockroachdb/errors.
var (
	// ErrInvariant indicates a precondition failure: an unaligned backing
	// file, querying before indexing, densifying an empty store, appending
	// without an open writer.
	ErrInvariant = errors.New("dmmap: invariant violation")

	// ErrFormatMismatch indicates the sidecar index file's magic or format
	// version disagrees with this implementation, or its payload is corrupt.
	ErrFormatMismatch = errors.New("dmmap: index format mismatch")

	// ErrSchemaMismatch indicates the sidecar was built with a different
	// record width than this instance is configured for.
	ErrSchemaMismatch = errors.New("dmmap: record schema mismatch")

	// ErrStaleIndex indicates the backing store was modified after the
	// sidecar was written.
	ErrStaleIndex = errors.New("dmmap: stale index")

	// ErrKeyOutOfRange indicates a queried key lies outside [0, maxKey].
	ErrKeyOutOfRange = errors.New("dmmap: key out of range")
)
