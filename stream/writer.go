// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stream

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
)

// Writer listens on a filesystem rendezvous path, accepts exactly one peer,
// and writes length-prefixed records to it. Writes are fully blocking.
type Writer struct {
	listener net.Listener
	conn     net.Conn
	path     string
	scratch  []byte
}

// ListenWriter removes any stale socket file at path, binds a new one, and
// blocks until a single peer has connected.
func ListenWriter(path string) (*Writer, error) {
	// Remove a stale socket file from a previous run; any real problem with
	// the path surfaces as a bind error below.
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("stream: bind %s: %w", path, err)
	}
	conn, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("stream: accept on %s: %w", path, err)
	}
	return &Writer{listener: ln, conn: conn, path: path}, nil
}

// WriteRecord writes payload as one length-prefixed record. The header and
// payload are combined into a single buffered write so a record is never
// split across two separate Write calls on the wire.
func (w *Writer) WriteRecord(payload []byte) error {
	need := lenFieldLen + len(payload)
	if cap(w.scratch) < need {
		w.scratch = make([]byte, need)
	}
	buf := w.scratch[:need]
	binary.LittleEndian.PutUint64(buf, uint64(len(payload)))
	copy(buf[lenFieldLen:], payload)
	if _, err := w.conn.Write(buf); err != nil {
		return fmt.Errorf("stream: write record: %w", err)
	}
	return nil
}

// Close performs a duplex shutdown of the connection and unlinks the
// rendezvous path.
func (w *Writer) Close() error {
	var firstErr error
	if w.conn != nil {
		if err := w.conn.Close(); err != nil {
			firstErr = err
		}
	}
	if w.listener != nil {
		_ = w.listener.Close()
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
