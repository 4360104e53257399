// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package ring implements the Framed Ring: a single-producer/single-consumer
// byte arena that hands variable-length, length-prefixed records between one
// writer goroutine and one reader goroutine without locks.
//
// Unlike a plain circular buffer, a reservation returned by Reserve is always
// contiguous: the arena never splits a record across the physical wrap
// boundary. Internally it behaves as a classic bip-buffer with two logical
// regions — the region the reader is currently draining, and an overflow
// region at the front of the arena the writer falls back to once the tail no
// longer has room for the next reservation.
package ring

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"code.hybscloud.com/iox"
)

// ErrRecordTooLarge is returned by Reserve when a single reservation could
// never fit even in an empty arena.
var ErrRecordTooLarge = errors.New("ring: reservation larger than arena capacity")

// ErrWouldBlock is the sentinel the non-blocking core operations return when
// progress isn't currently possible; callers retry via the blocking wrappers
// or their own backoff policy. It is an alias of iox.ErrWouldBlock, so
// callers can match it with errors.Is against either name.
var ErrWouldBlock = iox.ErrWouldBlock

const (
	spinLimit  = 100_000
	writePoll  = 20 * time.Millisecond
	readCoarse = 100 * time.Millisecond
)

// Ring is a fixed-capacity SPSC bip-buffer. The zero value is not usable;
// construct one with New. A Ring must not be shared beyond one writer
// goroutine and one reader goroutine.
//
// The cross-goroutine protocol is three indices. writePos is the committed
// write frontier, stored only by the writer. readPos is the read frontier,
// stored only by the reader (and reset to 0 by the reader when it reaches
// the wrap watermark). last is the wrap watermark: the end of valid data in
// the high region, stored by the writer immediately before the commit that
// makes writePos drop below readPos. The reader consults last only when it
// observes readPos > writePos, and the store ordering guarantees last is
// current whenever that observation holds.
type Ring struct {
	buf []byte

	writePos atomic.Uint64
	readPos  atomic.Uint64
	last     atomic.Uint64

	// writer-private. head is the write frontier including any uncommitted
	// reservation; it rejoins writePos on Commit.
	head        int
	reserveFrom int
	reserveLen  int

	// reader-private
	windowFrom int
}

// New returns a Ring backed by an arena of the given capacity in bytes.
func New(capacity int) *Ring {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Ring{buf: make([]byte, capacity)}
}

// Cap returns the arena's total capacity in bytes.
func (r *Ring) Cap() int { return len(r.buf) }

// Reserve tries to acquire a contiguous region of n bytes for writing. The
// returned slice aliases the arena directly; the caller must fill it (or a
// prefix of it, before a shorter Commit) before calling Commit, and must not
// retain the slice afterward. Only one reservation may be outstanding at a
// time; the reserved space is claimed immediately even before Commit.
// Reserve returns ErrWouldBlock when the arena currently lacks n contiguous
// free bytes.
func (r *Ring) Reserve(n int) ([]byte, error) {
	if n > len(r.buf) {
		return nil, ErrRecordTooLarge
	}
	read := int(r.readPos.Load())

	if r.head >= read {
		if len(r.buf)-r.head >= n {
			r.reserveFrom, r.reserveLen = r.head, n
			r.head += n
			return r.buf[r.reserveFrom : r.reserveFrom+n], nil
		}
		// Not enough room at the tail; wrap to the front. The overflow
		// must stay strictly below the reader's position so a committed
		// writePos < readPos unambiguously signals the wrapped state.
		if read > n {
			r.last.Store(uint64(r.head))
			r.reserveFrom, r.reserveLen = 0, n
			r.head = n
			return r.buf[0:n], nil
		}
		// Tail too small and the reader sits too low for an overflow.
		// If the arena is completely empty (nothing committed, nothing
		// reserved, nothing unread), park the watermark at the current
		// position and move the write frontier home; the reader migrates
		// to 0 on its next Peek, after which the full arena is one
		// contiguous tail again.
		if committed := int(r.writePos.Load()); read == committed && r.head == committed && read != 0 {
			r.last.Store(uint64(r.head))
			r.head = 0
			r.writePos.Store(0)
		}
		return nil, ErrWouldBlock
	}

	// Wrapped: the overflow region may grow up to (but never into) the
	// reader's current position in the high region.
	if read-r.head > n {
		r.reserveFrom, r.reserveLen = r.head, n
		r.head += n
		return r.buf[r.reserveFrom : r.reserveFrom+n], nil
	}
	return nil, ErrWouldBlock
}

// Commit publishes the first n bytes of the most recent reservation,
// making them visible to the reader. n must be <= the length last passed to
// Reserve; committing fewer bytes returns the rest of the reservation to
// the arena.
func (r *Ring) Commit(n int) {
	if n < 0 || n > r.reserveLen {
		panic("ring: Commit length out of range of last Reserve")
	}
	r.head = r.reserveFrom + n
	r.reserveLen = 0
	r.writePos.Store(uint64(r.head))
}

// Peek returns the current contiguous readable window. It may be shorter
// than the total valid data when the arena has wrapped and the remnant of
// the high region hasn't been fully drained yet; callers that need more
// than one window's worth of bytes must Consume and Peek again. Peek
// returns a zero-length slice when the arena is empty.
func (r *Ring) Peek() []byte {
	read := int(r.readPos.Load())
	write := int(r.writePos.Load())

	if read <= write {
		r.windowFrom = read
		return r.buf[read:write]
	}

	// Wrapped: valid data runs from read to the watermark, then from the
	// front of the arena to write. Reaching the watermark migrates the
	// read frontier home.
	last := int(r.last.Load())
	if read >= last {
		r.readPos.Store(0)
		r.windowFrom = 0
		return r.buf[0:write]
	}
	r.windowFrom = read
	return r.buf[read:last]
}

// Consume marks the first n bytes of the window last returned by Peek as
// freed, making that space available to the writer again.
func (r *Ring) Consume(n int) {
	r.readPos.Store(uint64(r.windowFrom + n))
}

// ReserveBlocking wraps Reserve with the writer side of the blocking
// discipline: sleep-poll at ~20ms intervals (no spin phase) until a
// reservation succeeds or ctx is done.
func (r *Ring) ReserveBlocking(ctx context.Context, n int) ([]byte, error) {
	for {
		region, err := r.Reserve(n)
		if err == nil {
			return region, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(writePoll):
		}
	}
}

// PeekBlocking waits until at least minBytes are readable in one contiguous
// window, using a bounded spin followed by coarser sleeps, and returns the
// (possibly larger) current window.
func (r *Ring) PeekBlocking(ctx context.Context, minBytes int) ([]byte, error) {
	spins := 0
	for {
		window := r.Peek()
		if len(window) >= minBytes {
			return window, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if spins < spinLimit {
			spins++
			runtime.Gosched()
			continue
		}
		spins = 0
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(readCoarse):
		}
	}
}
