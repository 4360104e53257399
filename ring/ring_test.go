// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package ring_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/opendiode/godiode/ring"
)

func TestReserveCommitPeekConsumeRoundTrip(t *testing.T) {
	r := ring.New(64)
	region, err := r.Reserve(10)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	copy(region, []byte("0123456789"))
	r.Commit(10)

	window := r.Peek()
	if string(window) != "0123456789" {
		t.Fatalf("Peek = %q, want %q", window, "0123456789")
	}
	r.Consume(10)
	if len(r.Peek()) != 0 {
		t.Fatalf("Peek after full consume should be empty")
	}
}

func TestReserveWouldBlockWhenFull(t *testing.T) {
	r := ring.New(8)
	if _, err := r.Reserve(8); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := r.Reserve(1); !errors.Is(err, ring.ErrWouldBlock) {
		t.Fatalf("Reserve on full ring = %v, want ErrWouldBlock", err)
	}
}

func TestReserveTooLarge(t *testing.T) {
	r := ring.New(8)
	if _, err := r.Reserve(9); !errors.Is(err, ring.ErrRecordTooLarge) {
		t.Fatalf("Reserve(9) on cap-8 ring = %v, want ErrRecordTooLarge", err)
	}
}

// TestWrapAroundNeverSplitsAReservation exercises the bip-buffer's core
// guarantee: once the tail no longer fits a reservation, the arena wraps to
// the front instead of splitting the record across the boundary.
func TestWrapAroundNeverSplitsAReservation(t *testing.T) {
	r := ring.New(16)

	reg, err := r.Reserve(12)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	copy(reg, []byte("firstmessage"))
	r.Commit(12)

	window := r.Peek()
	r.Consume(len(window)) // drain so the tail-insufficient reservation can wrap

	reg2, err := r.Reserve(10)
	if err != nil {
		t.Fatalf("Reserve after wrap: %v", err)
	}
	if len(reg2) != 10 {
		t.Fatalf("wrapped reservation length = %d, want 10", len(reg2))
	}
	copy(reg2, []byte("secondmsg!"))
	r.Commit(10)

	window2 := r.Peek()
	if string(window2) != "secondmsg!" {
		t.Fatalf("Peek after wrap = %q, want %q", window2, "secondmsg!")
	}
}

// TestRecordRoundTrip is property P1: any sequence of random byte strings
// written via the framing convention reads back identically.
func TestRecordRoundTrip(t *testing.T) {
	r := ring.New(1 << 20)
	rng := rand.New(rand.NewSource(1))
	var want [][]byte
	for i := 0; i < 200; i++ {
		n := rng.Intn(4096) + 1
		b := make([]byte, n)
		rng.Read(b)
		want = append(want, b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		for _, b := range want {
			if err := r.PutRecordBlocking(ctx, b); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	var got [][]byte
	var dst []byte
	for range want {
		rec, err := r.GetRecordBlocking(ctx, dst)
		if err != nil {
			t.Fatalf("GetRecordBlocking: %v", err)
		}
		cp := append([]byte(nil), rec...)
		got = append(got, cp)
	}
	if err := <-done; err != nil {
		t.Fatalf("writer goroutine: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != string(want[i]) {
			t.Fatalf("record %d mismatch", i)
		}
	}
}

func TestReserveBlockingRespectsContextCancellation(t *testing.T) {
	r := ring.New(4)
	if _, err := r.Reserve(4); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := r.ReserveBlocking(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ReserveBlocking on perpetually full ring = %v, want DeadlineExceeded", err)
	}
}
