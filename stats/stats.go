// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package stats implements the Statistics Core (C6): a fixed set of
// lock-free counters and gauges, flushed once a second as a statsd pipeline
// to a configured collector.
package stats

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Counter is an atomically incremented accumulator that reports and resets
// its value-since-last-flush in one step.
type Counter struct{ v atomic.Uint64 }

// Add increments the counter by delta.
func (c *Counter) Add(delta uint64) { c.v.Add(delta) }

// Load reads the counter's current value without resetting it, for tests
// and diagnostics that must not race the flush loop's read-and-reset.
func (c *Counter) Load() uint64 { return c.v.Load() }

// takeAndReset atomically reads the current value and resets it to zero.
func (c *Counter) takeAndReset() uint64 { return c.v.Swap(0) }

// Gauge holds the most recently set value; flushing never resets a gauge.
type Gauge struct{ v atomic.Int64 }

// Set stores value as the gauge's current reading.
func (g *Gauge) Set(value int64) { g.v.Store(value) }

// Get returns the gauge's current reading.
func (g *Gauge) Get() int64 { return g.v.Load() }

// Handler is the fixed set of accumulators every handler process exposes,
// plus one optional custom counter/gauge pair for handler-specific metrics
// (e.g. the filter handlers' dropped-by-rule count).
type Handler struct {
	InBytes        Counter
	InPackets      Counter
	OutBytes       Counter
	OutPackets     Counter
	DroppedBytes   Counter
	DroppedPackets Counter
	PacketLoss     Counter

	CustomCounter *Counter
	CustomGauge   *Gauge
	CustomName    string
}

// NewHandler returns a Handler with no custom counter/gauge configured.
func NewHandler() *Handler { return &Handler{} }

// WithCustom attaches a named custom counter and gauge to h, returning h
// for chaining.
func (h *Handler) WithCustom(name string) *Handler {
	h.CustomName = name
	h.CustomCounter = &Counter{}
	h.CustomGauge = &Gauge{}
	return h
}

// Pipeline renders one statsd pipeline datagram body for h, scoped under
// prefix, reading-and-resetting every counter and reading every gauge.
// Counter lines use the `|c` suffix, gauge lines `|g`, matching the standard
// statsd line protocol.
func (h *Handler) Pipeline(prefix string) []byte {
	var b strings.Builder
	line := func(metric string, value uint64, kind byte) {
		fmt.Fprintf(&b, "%s.%s:%d|%c\n", prefix, metric, value, kind)
	}
	line("in.bytes", h.InBytes.takeAndReset(), 'c')
	line("in.packets", h.InPackets.takeAndReset(), 'c')
	line("out.bytes", h.OutBytes.takeAndReset(), 'c')
	line("out.packets", h.OutPackets.takeAndReset(), 'c')
	line("dropped.bytes", h.DroppedBytes.takeAndReset(), 'c')
	line("dropped.packets", h.DroppedPackets.takeAndReset(), 'c')
	line("packetloss", h.PacketLoss.takeAndReset(), 'c')
	if h.CustomCounter != nil {
		line(h.CustomName, h.CustomCounter.takeAndReset(), 'c')
	}
	if h.CustomGauge != nil {
		fmt.Fprintf(&b, "%s.%s:%d|g\n", prefix, h.CustomName+"_gauge", h.CustomGauge.Get())
	}
	return []byte(b.String())
}
