// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stream

import (
	"context"
	"fmt"

	"github.com/opendiode/godiode/ring"
)

// BufferedReader drains records arriving on a Reader directly into a ring,
// matching the handler-internal worker that feeds its ring from the
// upstream local stream.
type BufferedReader struct {
	r   *Reader
	out *ring.Ring
}

// NewBufferedReader pairs an already-connected Reader with the ring it feeds.
func NewBufferedReader(r *Reader, out *ring.Ring) *BufferedReader {
	return &BufferedReader{r: r, out: out}
}

// Run reads records from the stream and publishes them to the ring until
// ctx is done or an I/O error occurs.
func (b *BufferedReader) Run(ctx context.Context) error {
	var scratch []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := b.r.ReadRecord(scratch)
		if err != nil {
			return fmt.Errorf("buffered reader: %w", err)
		}
		scratch = rec
		if err := b.out.PutRecordBlocking(ctx, rec); err != nil {
			return fmt.Errorf("buffered reader: publish to ring: %w", err)
		}
	}
}

// BufferedWriter drains a ring and writes each record to a Writer, matching
// the handler-internal worker that feeds the downstream local stream from
// its ring.
type BufferedWriter struct {
	w  *Writer
	in *ring.Ring
}

// NewBufferedWriter pairs an already-accepted Writer with the ring it drains.
func NewBufferedWriter(w *Writer, in *ring.Ring) *BufferedWriter {
	return &BufferedWriter{w: w, in: in}
}

// Run drains records from the ring and writes them to the stream until ctx
// is done or an I/O error occurs.
func (b *BufferedWriter) Run(ctx context.Context) error {
	var scratch []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := b.in.GetRecordBlocking(ctx, scratch)
		if err != nil {
			return fmt.Errorf("buffered writer: read from ring: %w", err)
		}
		scratch = rec
		if err := b.w.WriteRecord(rec); err != nil {
			return fmt.Errorf("buffered writer: %w", err)
		}
	}
}
