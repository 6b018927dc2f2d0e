// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

//go:build !unix

package extsort

import "os"

// Radix sorts the record file in place. Without mmap support the file is
// read into memory, sorted, and written back.
type Radix struct {
	Opts Options
}

var _ Sorter = Radix{}

// Sort implements Sorter.
func (r Radix) Sort(path string, recordSize, keySize int) error {
	opts := r.Opts.EnsureDefaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validate(int64(len(data)), recordSize, keySize); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	sortRecords(data, recordSize, keySize, opts)
	return os.WriteFile(path, data, 0666)
}
