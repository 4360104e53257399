// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package statsmux implements the Stats Multiplexer (C7): a single UDP
// listener that forwards every received datagram, byte-identical, to a
// fixed set of collector addresses.
package statsmux

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
)

const maxDatagram = 65507

// Multiplexer fans out statsd datagrams received on one port to a set of
// pre-resolved destinations.
type Multiplexer struct {
	conn *net.UDPConn
	dsts []*net.UDPAddr
	log  *zap.Logger
}

// New binds 0.0.0.0:port and resolves every address in dstHostPorts.
func New(port int, dstHostPorts []string, log *zap.Logger) (*Multiplexer, error) {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("statsmux: bind :%d: %w", port, err)
	}
	dsts := make([]*net.UDPAddr, 0, len(dstHostPorts))
	for _, hp := range dstHostPorts {
		resolved, err := net.ResolveUDPAddr("udp", hp)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("statsmux: resolve %s: %w", hp, err)
		}
		dsts = append(dsts, resolved)
	}
	return &Multiplexer{conn: conn, dsts: dsts, log: log}, nil
}

// Run receives datagrams and forwards them until ctx is done or the socket
// is closed. A send error to one destination is logged and does not stop
// the loop or affect delivery to the others.
func (m *Multiplexer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		m.conn.Close()
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, _, err := m.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Debug("statsmux: receive error", zap.Error(err))
			continue
		}
		if n == 0 {
			continue
		}
		for _, dst := range m.dsts {
			if _, err := m.conn.WriteToUDP(buf[:n], dst); err != nil {
				m.log.Warn("statsmux: forward failed", zap.Stringer("dst", dst), zap.Error(err))
			}
		}
	}
}

// Close releases the listening socket.
func (m *Multiplexer) Close() error { return m.conn.Close() }
