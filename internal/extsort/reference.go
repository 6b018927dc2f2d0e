// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package extsort

import (
	"bytes"
	"os"
	"sort"
)

// Reference is a comparison sorter that holds the whole file in memory. It
// exists so correctness tests and small builds do not depend on the radix
// partitioning strategy; the two sorters are interchangeable behind Sorter.
type Reference struct{}

var _ Sorter = Reference{}

// Sort implements Sorter.
func (Reference) Sort(path string, recordSize, keySize int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validate(int64(len(data)), recordSize, keySize); err != nil {
		return err
	}
	n := len(data) / recordSize
	if n < 2 {
		return nil
	}
	records := make([][]byte, n)
	for i := range records {
		records[i] = data[i*recordSize : (i+1)*recordSize]
	}
	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i][:keySize], records[j][:keySize]) < 0
	})
	out := make([]byte, 0, len(data))
	for _, r := range records {
		out = append(out, r...)
	}
	return os.WriteFile(path, out, 0666)
}
