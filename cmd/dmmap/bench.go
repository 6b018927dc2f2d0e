// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package main

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/dmmap/dmmap"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

var (
	benchCount int
	benchSeed  uint64
)

const (
	minLatency = 10 * time.Nanosecond
	maxLatency = 10 * time.Second
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "issue random point queries and report latency percentiles",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		m, err := dmmap.Load[uint64](args[0], &dmmap.Options{ValueSize: valueSize})
		if err != nil {
			return err
		}
		defer m.Close()
		maxKey, err := m.MaxKey()
		if err != nil {
			return err
		}

		rng := rand.New(rand.NewSource(benchSeed))
		h := hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 1)
		begin := time.Now()
		for i := 0; i < benchCount; i++ {
			key := rng.Uint64n(maxKey + 1)
			start := time.Now()
			if _, err := m.Values(key); err != nil {
				return err
			}
			if err := h.RecordValue(time.Since(start).Nanoseconds()); err != nil {
				return err
			}
		}
		elapsed := time.Since(begin)

		fmt.Printf("%d queries in %s (%.0f ops/sec)\n",
			benchCount, elapsed, float64(benchCount)/elapsed.Seconds())
		fmt.Printf("p50: %s  p95: %s  p99: %s  max: %s\n",
			time.Duration(h.ValueAtQuantile(50)),
			time.Duration(h.ValueAtQuantile(95)),
			time.Duration(h.ValueAtQuantile(99)),
			time.Duration(h.Max()))
		return nil
	},
}
