// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package tx implements the TX Engine (C4): it drains application messages
// from the Framed Ring, fragments each into MaxUDPPayload-sized packets,
// stamps the fixed 9-byte header, and sends them one-way over UDP with a
// pacing limiter between every packet, including inside the StartUp and
// Shutdown sentinel bursts.
package tx

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/wire"
)

// SpecialMessageCount is the number of StartUp/Shutdown sentinel packets an
// engine sends at either end of its lifetime.
const SpecialMessageCount = 200

// Engine drains a Framed Ring and sends its records, fragmented, to a single
// fixed UDP destination. An Engine must not be used from more than one
// goroutine at a time except for Stop, which may race Run's drain loop by
// design.
type Engine struct {
	conn    *net.UDPConn
	reader  *ring.Ring
	limiter *rate.Limiter
	stats   *stats.Handler
	log     *zap.Logger

	mu  sync.Mutex // serializes socket writes/sequence state between Run and Stop
	seq uint32
}

// New binds a UDP socket at localAddr (e.g. ":0" for an ephemeral port),
// sets SO_BROADCAST on it, and connects it to the fixed remote destination
// remoteAddr. packetsPerSecond bounds the engine's send rate; pacing is
// applied before every packet, sentinels included.
func New(localAddr, remoteAddr string, r *ring.Ring, packetsPerSecond float64, h *stats.Handler, log *zap.Logger) (*Engine, error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("tx: resolve local addr %s: %w", localAddr, err)
	}
	raddr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("tx: resolve remote addr %s: %w", remoteAddr, err)
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("tx: dial %s: %w", remoteAddr, err)
	}
	if err := setBroadcast(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tx: set broadcast: %w", err)
	}
	return &Engine{
		conn:    conn,
		reader:  r,
		limiter: rate.NewLimiter(rate.Limit(packetsPerSecond), 1),
		stats:   h,
		log:     log,
	}, nil
}

func setBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if ctlErr := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); ctlErr != nil {
		return ctlErr
	}
	return sockErr
}

// Run sends the StartUp sentinel burst, then drains the ring and forwards
// every record as one or more fragments until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.sentinelBurst(ctx, wire.TypeStartUp); err != nil {
		return err
	}

	pkt := make([]byte, wire.HeaderLen+wire.MaxUDPPayload)
	scratch := make([]byte, 0, wire.MaxUDPPayload*4)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := e.reader.GetRecordBlocking(ctx, scratch)
		if err != nil {
			return err
		}
		scratch = record

		e.mu.Lock()
		e.stats.InBytes.Add(uint64(len(record)))
		e.stats.InPackets.Add(1)
		err = e.sendFragments(ctx, record, pkt)
		e.mu.Unlock()
		if err != nil {
			return err
		}
	}
}

// sendFragments splits payload into ceil(len(payload)/MaxUDPPayload)
// fragments (never fewer than one, so an empty record still crosses the
// link as a single empty DataFirst packet) and sends each in turn.
func (e *Engine) sendFragments(ctx context.Context, payload []byte, pkt []byte) error {
	total := len(payload)
	fragments := (total + wire.MaxUDPPayload - 1) / wire.MaxUDPPayload
	if fragments == 0 {
		fragments = 1
	}
	remaining := uint16(fragments - 1)

	off := 0
	for i := 0; i < fragments; i++ {
		end := off + wire.MaxUDPPayload
		if end > total {
			end = total
		}
		typ := wire.TypeData
		if i == 0 {
			typ = wire.TypeDataFirst
		}
		if err := e.sendOne(ctx, typ, payload[off:end], remaining, pkt); err != nil {
			return err
		}
		if remaining > 0 {
			remaining--
		}
		off = end
	}
	return nil
}

// sendOne paces, stamps, and sends a single fragment. A transient send
// error is logged and swallowed: there is no retransmission on this link,
// and the next fragment or record should still be attempted.
func (e *Engine) sendOne(ctx context.Context, typ wire.Type, payload []byte, remaining uint16, pkt []byte) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	seq := e.seq
	e.seq++

	buf := pkt[:wire.HeaderLen+len(payload)]
	wire.Encode(buf, wire.Header{
		Type:               typ,
		Sequence:           seq,
		PayloadLength:      uint16(len(payload)),
		RemainingFragments: remaining,
	})
	copy(buf[wire.HeaderLen:], payload)

	if _, err := e.conn.Write(buf); err != nil {
		e.log.Warn("tx: send failed", zap.Error(err))
		return nil
	}
	e.stats.OutBytes.Add(uint64(len(buf)))
	e.stats.OutPackets.Add(1)
	return nil
}

// sentinelBurst resets the sequence counter to zero and sends
// SpecialMessageCount zero-length, zero-sequence packets of the given type,
// paced the same as data traffic.
func (e *Engine) sentinelBurst(ctx context.Context, typ wire.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq = 0

	var buf [wire.HeaderLen]byte
	wire.Encode(buf[:], wire.Header{Type: typ})
	for i := 0; i < SpecialMessageCount; i++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := e.conn.Write(buf[:]); err != nil {
			e.log.Warn("tx: sentinel send failed", zap.Stringer("type", typ), zap.Error(err))
			continue
		}
		e.stats.OutBytes.Add(wire.HeaderLen)
		e.stats.OutPackets.Add(1)
	}
	return nil
}

// Stop sends the Shutdown sentinel burst. It may be called concurrently
// with Run.
func (e *Engine) Stop(ctx context.Context) error {
	return e.sentinelBurst(ctx, wire.TypeShutdown)
}

// Close releases the underlying socket.
func (e *Engine) Close() error { return e.conn.Close() }
