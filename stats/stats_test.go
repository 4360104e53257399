// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stats_test

import (
	"strings"
	"testing"

	"github.com/opendiode/godiode/stats"
)

func TestPipelineFormatAndReset(t *testing.T) {
	h := stats.NewHandler()
	h.InBytes.Add(100)
	h.InPackets.Add(1)
	h.DroppedBytes.Add(5)

	body := string(h.Pipeline("mychain.tx"))
	for _, want := range []string{
		"mychain.tx.in.bytes:100|c",
		"mychain.tx.in.packets:1|c",
		"mychain.tx.dropped.bytes:5|c",
		"mychain.tx.out.bytes:0|c",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("pipeline missing %q in:\n%s", want, body)
		}
	}

	second := string(h.Pipeline("mychain.tx"))
	if !strings.Contains(second, "mychain.tx.in.bytes:0|c") {
		t.Fatalf("counters should reset after flush, got:\n%s", second)
	}
}

func TestPipelineWithCustomFields(t *testing.T) {
	h := stats.NewHandler().WithCustom("filtered")
	h.CustomCounter.Add(3)
	h.CustomGauge.Set(7)
	body := string(h.Pipeline("chain.filter"))
	if !strings.Contains(body, "chain.filter.filtered:3|c") {
		t.Fatalf("missing custom counter line:\n%s", body)
	}
	if !strings.Contains(body, "chain.filter.filtered_gauge:7|g") {
		t.Fatalf("missing custom gauge line:\n%s", body)
	}
}
