// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package rx implements the RX Engine (C5): it receives UDP datagrams on a
// single socket, detects loss by sequence gaps, feeds a reassembly state
// machine, and publishes complete application messages into the Framed Ring
// it owns as the sole writer.
package rx

import (
	"context"
	"encoding/binary"
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/opendiode/godiode/internal/nativeint"
	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/wire"
)

// lenFieldWidth is the width, in bytes, of the ring's record length prefix;
// kept in lockstep with ring's own framing convention (native word size,
// little-endian).
var lenFieldWidth = nativeint.Size()

// maxSlots is the number of fragment slots pre-allocated at construction;
// larger messages grow the slice rather than truncate.
const maxSlots = 20

// state is the reassembly state machine's current mode.
type state int

const (
	waitingForFirst state = iota
	waitingForData
)

// Engine owns one UDP socket and one outbound Framed Ring. It must not be
// used from more than one goroutine.
type Engine struct {
	conn  *net.UDPConn
	out   *ring.Ring
	stats *stats.Handler
	log   *zap.Logger

	expectedSeq uint32
	st          state
	total       int
	slots       [][]byte
}

// New binds listenAddr (e.g. ":9000") and returns an Engine that publishes
// reassembled records into out.
func New(listenAddr string, out *ring.Ring, h *stats.Handler, log *zap.Logger) (*Engine, error) {
	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	slots := make([][]byte, maxSlots)
	for i := range slots {
		slots[i] = make([]byte, 0, wire.MaxUDPPayload)
	}
	return &Engine{
		conn:  conn,
		out:   out,
		stats: h,
		log:   log,
		st:    waitingForFirst,
		slots: slots,
	}, nil
}

// Close releases the listening socket.
func (e *Engine) Close() error { return e.conn.Close() }

// Addr returns the socket's bound local address, letting callers discover
// an ephemeral port chosen via ":0".
func (e *Engine) Addr() *net.UDPAddr { return e.conn.LocalAddr().(*net.UDPAddr) }

// Run receives datagrams and drives the reassembly state machine until a
// Shutdown sentinel is received or ctx is done. Unlike every other
// suspension point in this repository, the receive loop honors no
// backpressure from downstream: a full ring means a dropped record, never a
// blocked receive, because blocking here would back up the UDP socket and
// cause silent kernel-side loss.
func (e *Engine) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			e.conn.Close()
		case <-done:
		}
	}()

	buf := make([]byte, 65507)
	for {
		n, _, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.log.Debug("rx: receive error", zap.Error(err))
			continue
		}
		if n < wire.HeaderLen {
			e.log.Debug("rx: short datagram discarded", zap.Int("bytes", n))
			continue
		}

		hdr := wire.Decode(buf[:n])
		payload := buf[wire.HeaderLen:n]

		e.stats.InBytes.Add(uint64(hdr.PayloadLength))
		e.stats.InPackets.Add(1)

		if lost := e.checkLoss(hdr.Sequence); lost > 0 {
			e.stats.PacketLoss.Add(uint64(lost))
			e.log.Warn("rx: packetloss detected, state reset", zap.Uint64("lost", uint64(lost)))
			e.st = waitingForFirst
		}

		more, err := e.updateState(hdr, payload)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// checkLoss compares the incoming sequence number against the expected
// next one and returns the number of packets lost this iteration. A
// sequence of 0 is the sentinel convention (StartUp/Shutdown bursts and the
// very first data packet after a startup reset) and never counts as loss.
// A sequence lower than expected is logged as out-of-order but, since no
// reordering is expected on a direct link, is not counted as loss either.
func (e *Engine) checkLoss(seqIn uint32) uint32 {
	expected := e.expectedSeq + 1
	var lost uint32
	switch {
	case seqIn == 0:
	case seqIn == expected:
	case seqIn > expected:
		lost = seqIn - expected
		e.log.Error("rx: lost packets this iteration", zap.Uint32("count", lost))
	default:
		e.log.Warn("rx: packet received out of order", zap.Uint32("sequence", seqIn))
	}
	e.expectedSeq = seqIn
	return lost
}

// updateState applies one (state, packet type) transition. The bool result
// is false only once the Shutdown sentinel has been processed, telling Run
// to stop its loop.
func (e *Engine) updateState(hdr wire.Header, payload []byte) (bool, error) {
	switch hdr.Type {
	case wire.TypeStartUp:
		e.expectedSeq = 0
		e.st = waitingForFirst
		e.total = 0
		return true, nil
	case wire.TypeHeartBeat:
		return true, nil
	case wire.TypeShutdown:
		e.log.Warn("rx: shutdown sentinel received, stopping")
		return false, nil
	case wire.TypeData:
		if e.st != waitingForData {
			e.log.Debug("rx: data message discarded, not expected")
			return true, nil
		}
		return true, e.handleData(hdr, payload)
	default: // wire.TypeDataFirst, or any unknown type wire.Decode coerced to it
		if e.st == waitingForData {
			e.log.Warn("rx: datafirst received mid-message, partial discarded")
		}
		return true, e.handleDataFirst(hdr, payload)
	}
}

// handleDataFirst buffers fragment 0 of a new message, or — when the
// message is only a single fragment — publishes it immediately. It always
// (re)starts the reassembly state, discarding any message in progress,
// whether arriving from WaitingForFirst or WaitingForData.
func (e *Engine) handleDataFirst(hdr wire.Header, payload []byte) error {
	if hdr.RemainingFragments == 0 {
		e.st = waitingForFirst
		return e.publishOne(payload)
	}
	total := int(hdr.RemainingFragments) + 1
	e.ensureSlots(total)
	e.slots[0] = append(e.slots[0][:0], payload...)
	e.total = total
	e.st = waitingForData
	return nil
}

// handleData buffers a non-first fragment at its slot, computed from the
// total fragment count and its remaining-fragments countdown, and publishes
// the combined record once the last fragment (remaining == 0) arrives.
func (e *Engine) handleData(hdr wire.Header, payload []byte) error {
	idx := e.total - int(hdr.RemainingFragments) - 1
	e.ensureSlots(idx + 1)
	e.slots[idx] = append(e.slots[idx][:0], payload...)
	if hdr.RemainingFragments != 0 {
		e.st = waitingForData
		return nil
	}
	e.st = waitingForFirst
	return e.publish(e.total)
}

// ensureSlots grows the fragment-slot slice so index n-1 exists, preserving
// already-populated slots; each newly appended slot reuses a
// wire.MaxUDPPayload-capacity backing array, matching the existing slots.
func (e *Engine) ensureSlots(n int) {
	for len(e.slots) < n {
		e.slots = append(e.slots, make([]byte, 0, wire.MaxUDPPayload))
	}
}

// publishOne publishes a single-fragment message directly, without going
// through the fragment-slot buffer.
func (e *Engine) publishOne(payload []byte) error {
	return e.reserveAndWrite(len(payload), func(dst []byte) { copy(dst, payload) })
}

// publish combines fragment slots 0..total-1 and reserves one region on the
// outbound ring sized (total-1)*MaxUDPPayload + len(last fragment) +
// length-prefix, per the publication formula. If the ring lacks the space,
// the record is dropped and counted rather than blocking the receive loop.
func (e *Engine) publish(total int) error {
	n := 0
	for i := 0; i < total; i++ {
		n += len(e.slots[i])
	}
	return e.reserveAndWrite(n, func(dst []byte) {
		off := 0
		for i := 0; i < total; i++ {
			off += copy(dst[off:], e.slots[i])
		}
	})
}

func (e *Engine) reserveAndWrite(payloadLen int, fill func(dst []byte)) error {
	region, err := e.out.Reserve(lenFieldWidth + payloadLen)
	if err != nil {
		if errors.Is(err, ring.ErrWouldBlock) || errors.Is(err, ring.ErrRecordTooLarge) {
			e.stats.DroppedBytes.Add(uint64(payloadLen))
			e.stats.DroppedPackets.Add(1)
			e.log.Warn("rx: dropped record, ring has no space", zap.Int("bytes", payloadLen))
			return nil
		}
		return err
	}
	putLen(region, payloadLen)
	fill(region[lenFieldWidth:])
	e.out.Commit(len(region))
	e.stats.OutBytes.Add(uint64(len(region)))
	e.stats.OutPackets.Add(1)
	return nil
}

func putLen(dst []byte, n int) {
	switch lenFieldWidth {
	case 8:
		binary.LittleEndian.PutUint64(dst, uint64(n))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(n))
	default:
		panic("rx: unsupported native word size")
	}
}
