// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package tx_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/tx"
	"github.com/opendiode/godiode/wire"
)

func TestEngineSendsStartupBurstThenFragmentsRecord(t *testing.T) {
	rcv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatal(err)
	}
	defer rcv.Close()

	r := ring.New(1 << 20)
	h := stats.NewHandler()
	eng, err := tx.New("127.0.0.1:0", rcv.LocalAddr().String(), r, 2000, h, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	buf := make([]byte, 65507)

	for i := 0; i < tx.SpecialMessageCount; i++ {
		rcv.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := rcv.Read(buf)
		if err != nil {
			t.Fatalf("reading sentinel %d: %v", i, err)
		}
		hdr := wire.Decode(buf[:n])
		if hdr.Type != wire.TypeStartUp || hdr.Sequence != 0 || hdr.PayloadLength != 0 {
			t.Fatalf("sentinel %d: unexpected header %+v", i, hdr)
		}
	}

	payload := make([]byte, wire.MaxUDPPayload+100)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := r.PutRecordBlocking(ctx, payload); err != nil {
		t.Fatal(err)
	}

	rcv.SetReadDeadline(time.Now().Add(2 * time.Second))
	n1, err := rcv.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	h1 := wire.Decode(buf[:n1])
	if h1.Type != wire.TypeDataFirst || h1.RemainingFragments != 1 || int(h1.PayloadLength) != wire.MaxUDPPayload {
		t.Fatalf("unexpected first fragment header: %+v", h1)
	}
	if diff := cmp.Diff(payload[:wire.MaxUDPPayload], buf[wire.HeaderLen:n1:n1]); diff != "" {
		t.Fatalf("first fragment payload mismatch: %s", diff)
	}

	rcv.SetReadDeadline(time.Now().Add(2 * time.Second))
	n2, err := rcv.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	h2 := wire.Decode(buf[:n2])
	if h2.Type != wire.TypeData || h2.RemainingFragments != 0 || int(h2.PayloadLength) != 100 {
		t.Fatalf("unexpected second fragment header: %+v", h2)
	}
	if h2.Sequence != h1.Sequence+1 {
		t.Fatalf("sequence did not increment: %d -> %d", h1.Sequence, h2.Sequence)
	}
}

func TestEngineEmptyRecordIsOneFragment(t *testing.T) {
	rcv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatal(err)
	}
	defer rcv.Close()

	r := ring.New(1 << 16)
	h := stats.NewHandler()
	eng, err := tx.New("127.0.0.1:0", rcv.LocalAddr().String(), r, 5000, h, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	buf := make([]byte, 65507)
	for i := 0; i < tx.SpecialMessageCount; i++ {
		rcv.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := rcv.Read(buf); err != nil {
			t.Fatalf("reading sentinel %d: %v", i, err)
		}
	}

	if err := r.PutRecordBlocking(ctx, nil); err != nil {
		t.Fatal(err)
	}
	rcv.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := rcv.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	hdr := wire.Decode(buf[:n])
	if hdr.Type != wire.TypeDataFirst || hdr.RemainingFragments != 0 || hdr.PayloadLength != 0 {
		t.Fatalf("unexpected empty-record header: %+v", hdr)
	}
}
