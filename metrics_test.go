// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func histogramSampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.Histogram.GetSampleCount()
}

func TestLatencyHistograms(t *testing.T) {
	buildLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "dmmap_build_seconds",
	})
	queryLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "dmmap_query_seconds",
	})

	path := filepath.Join(t.TempDir(), "records")
	m, err := Open[uint64](path, &Options{
		ValueSize:    2,
		Logger:       testLogger{t},
		BuildLatency: buildLatency,
		QueryLatency: queryLatency,
	})
	require.NoError(t, err)
	defer m.Close()

	appendAll(t, m, 2, map[uint64][]string{0: {"aa"}, 4: {"bb"}})
	require.NoError(t, m.Index())
	require.EqualValues(t, 1, histogramSampleCount(t, buildLatency))

	for k := uint64(0); k <= 4; k++ {
		_, err := m.Values(k)
		require.NoError(t, err)
	}
	require.EqualValues(t, 5, histogramSampleCount(t, queryLatency))
	require.EqualValues(t, 1, histogramSampleCount(t, buildLatency))
}
