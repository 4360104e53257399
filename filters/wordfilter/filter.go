// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package wordfilter implements a record-dropping filter: a record whose
// first len(word) bytes equal (or glob-match) a configured word is dropped;
// everything else passes through unchanged.
package wordfilter

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"

	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
)

// globMeta are the characters that make a configured word a glob pattern
// rather than a literal string to compare exactly, matching gobwas/glob's
// special characters.
const globMeta = "*?[]{}!"

// Filter decides whether a record should be forwarded or dropped based on
// its first len(word) bytes.
type Filter struct {
	word    string
	pattern glob.Glob // nil for an exact (non-glob) word
}

// New compiles a Filter for word. When word contains a glob metacharacter
// it is compiled as a gobwas/glob pattern; otherwise matching is a plain
// byte-for-byte comparison.
func New(word string) (*Filter, error) {
	f := &Filter{word: word}
	if strings.ContainsAny(word, globMeta) {
		g, err := glob.Compile(word)
		if err != nil {
			return nil, fmt.Errorf("wordfilter: compile pattern %q: %w", word, err)
		}
		f.pattern = g
	}
	return f, nil
}

// Pass reports whether record should be forwarded. A record shorter than
// the configured word, or whose matching prefix isn't valid UTF-8, always
// passes: neither case can be meaningfully compared, so the filter forwards
// rather than dropping on doubt.
func (f *Filter) Pass(record []byte) bool {
	if len(record) < len(f.word) {
		return true
	}
	prefix := record[:len(f.word)]
	if !utf8.Valid(prefix) {
		return true
	}
	return !f.matches(string(prefix))
}

func (f *Filter) matches(prefix string) bool {
	if f.pattern != nil {
		return f.pattern.Match(prefix)
	}
	return prefix == f.word
}

// Stage wires a Filter between two rings: it drains in, drops or forwards
// each record, and publishes surviving records to out.
type Stage struct {
	filter *Filter
	in     *ring.Ring
	out    *ring.Ring
	stats  *stats.Handler
}

// NewStage returns a Stage draining in, filtering with f, and publishing to
// out. Dropped records increment h's dropped counters and, if h carries a
// custom field (see stats.Handler.WithCustom), its custom counter too.
func NewStage(f *Filter, in, out *ring.Ring, h *stats.Handler) *Stage {
	return &Stage{filter: f, in: in, out: out, stats: h}
}

// Run drains records from the inbound ring, filters each, and forwards
// survivors to the outbound ring until ctx is done or an I/O error occurs.
func (s *Stage) Run(ctx context.Context) error {
	var scratch []byte
	for {
		rec, err := s.in.GetRecordBlocking(ctx, scratch)
		if err != nil {
			return fmt.Errorf("wordfilter: read record: %w", err)
		}
		scratch = rec
		s.stats.InBytes.Add(uint64(len(rec)))
		s.stats.InPackets.Add(1)

		if !s.filter.Pass(rec) {
			s.stats.DroppedPackets.Add(1)
			s.stats.DroppedBytes.Add(uint64(len(rec)))
			if s.stats.CustomCounter != nil {
				s.stats.CustomCounter.Add(1)
			}
			continue
		}
		if err := s.out.PutRecordBlocking(ctx, rec); err != nil {
			return fmt.Errorf("wordfilter: publish record: %w", err)
		}
		s.stats.OutBytes.Add(uint64(len(rec)))
		s.stats.OutPackets.Add(1)
	}
}
