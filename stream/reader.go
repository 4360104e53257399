// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/cenkalti/backoff/v5"
)

const lenFieldLen = 8 // fixed 8-byte little-endian length prefix

// Reader connects to a Writer's rendezvous path and reads length-prefixed
// records. Reads are fully blocking: no read timeout is ever set, matching
// the no-feedback, restart-on-stall design the rest of the transport
// follows.
type Reader struct {
	conn net.Conn
	opts Options
	hdr  [lenFieldLen]byte
}

// DialReader waits for path to exist, then connects to it, retrying at
// fixed intervals for each step. It blocks until connected or ctx is done.
func DialReader(ctx context.Context, path string, opts ...Option) (*Reader, error) {
	o := newOptions(opts)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if _, statErr := os.Stat(path); statErr != nil {
			return struct{}{}, fmt.Errorf("rendezvous path %s not ready: %w", path, statErr)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewConstantBackOff(o.pathPollInterval)))
	if err != nil {
		return nil, err
	}

	conn, err := backoff.Retry(ctx, func() (net.Conn, error) {
		c, dialErr := net.Dial("unix", path)
		if dialErr != nil {
			return nil, fmt.Errorf("connect to %s: %w", path, dialErr)
		}
		return c, nil
	}, backoff.WithBackOff(backoff.NewConstantBackOff(o.connectRetryDelay)))
	if err != nil {
		return nil, err
	}

	return &Reader{conn: conn, opts: o}, nil
}

// ReadRecord blocks until a full length-prefixed record has arrived, then
// returns its payload as a slice of dst (grown/reallocated if too small).
func (r *Reader) ReadRecord(dst []byte) ([]byte, error) {
	if _, err := io.ReadFull(r.conn, r.hdr[:]); err != nil {
		return nil, fmt.Errorf("stream: read length prefix: %w", err)
	}
	n := int(binary.LittleEndian.Uint64(r.hdr[:]))
	if n > r.opts.maxRecordLen {
		return nil, ErrTooLong
	}
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	if n > 0 {
		if _, err := io.ReadFull(r.conn, dst); err != nil {
			return nil, fmt.Errorf("stream: read payload: %w", err)
		}
	}
	return dst, nil
}

// Close shuts down the underlying connection.
func (r *Reader) Close() error { return r.conn.Close() }
