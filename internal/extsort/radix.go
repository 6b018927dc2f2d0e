// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

//go:build unix

package extsort

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Radix sorts the record file in place through a writable memory mapping, so
// no second copy of the file is materialized. Address space proportional to
// the file size is required.
type Radix struct {
	Opts Options
}

var _ Sorter = Radix{}

// Sort implements Sorter.
func (r Radix) Sort(path string, recordSize, keySize int) error {
	opts := r.Opts.EnsureDefaults()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if err := validate(size, recordSize, keySize); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrapf(err, "extsort: mmap %q", path)
	}
	sortRecords(data, recordSize, keySize, opts)
	if err := unix.Msync(data, unix.MS_SYNC); err != nil {
		_ = unix.Munmap(data)
		return errors.Wrapf(err, "extsort: msync %q", path)
	}
	return unix.Munmap(data)
}
