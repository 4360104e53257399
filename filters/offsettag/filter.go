// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package offsettag implements a tagging filter that prepends an 8-byte
// big-endian sequence number to every record it forwards. The counter is
// maintained by the Stage itself, so the tag reflects record order, not
// record contents.
package offsettag

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
)

// tagLen is the width, in bytes, of the prepended sequence number.
const tagLen = 8

// Stage drains in, prepends a monotonically increasing 8-byte big-endian
// sequence number to each record, and publishes the tagged record to out.
type Stage struct {
	in    *ring.Ring
	out   *ring.Ring
	stats *stats.Handler
	next  uint64
}

// NewStage returns a Stage draining in and publishing tagged records to out.
// The sequence counter starts at 0.
func NewStage(in, out *ring.Ring, h *stats.Handler) *Stage {
	return &Stage{in: in, out: out, stats: h}
}

// Run tags and forwards records from the inbound ring to the outbound ring
// until ctx is done or an I/O error occurs.
func (s *Stage) Run(ctx context.Context) error {
	var scratch []byte
	tagged := make([]byte, 0, 2048)
	for {
		rec, err := s.in.GetRecordBlocking(ctx, scratch)
		if err != nil {
			return fmt.Errorf("offsettag: read record: %w", err)
		}
		scratch = rec
		s.stats.InBytes.Add(uint64(len(rec)))
		s.stats.InPackets.Add(1)

		if cap(tagged) < tagLen+len(rec) {
			tagged = make([]byte, tagLen+len(rec))
		}
		tagged = tagged[:tagLen+len(rec)]
		binary.BigEndian.PutUint64(tagged[:tagLen], s.next)
		copy(tagged[tagLen:], rec)
		s.next++

		if err := s.out.PutRecordBlocking(ctx, tagged); err != nil {
			return fmt.Errorf("offsettag: publish record: %w", err)
		}
		s.stats.OutBytes.Add(uint64(len(tagged)))
		s.stats.OutPackets.Add(1)
	}
}
