// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package rx_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/rx"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/tx"
	"github.com/opendiode/godiode/wire"
)

// TestTransportRoundtrip drives a full TX engine into a full RX engine over
// loopback UDP: every record put into the TX ring must come out of the RX
// ring byte-identical, and a Stop on the TX side must terminate the RX loop
// via the Shutdown sentinel burst.
func TestTransportRoundtrip(t *testing.T) {
	outRing := ring.New(4 << 20)
	rxStats := stats.NewHandler()
	rxEng, err := rx.New("127.0.0.1:0", outRing, rxStats, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer rxEng.Close()

	inRing := ring.New(4 << 20)
	txStats := stats.NewHandler()
	txEng, err := tx.New("127.0.0.1:0", rxEng.Addr().String(), inRing, 500, txStats, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer txEng.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rxDone := make(chan error, 1)
	go func() { rxDone <- rxEng.Run(ctx) }()
	go txEng.Run(ctx)

	small := []byte{0x00, 0x01}
	large := make([]byte, 3*wire.MaxUDPPayload+608)
	for i := range large {
		large[i] = byte(i % 256)
	}

	if err := inRing.PutRecordBlocking(ctx, small); err != nil {
		t.Fatal(err)
	}
	if err := inRing.PutRecordBlocking(ctx, large); err != nil {
		t.Fatal(err)
	}

	rec, err := outRing.GetRecordBlocking(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(small, rec); diff != "" {
		t.Fatalf("small record mismatch: %s", diff)
	}

	rec, err = outRing.GetRecordBlocking(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(large, rec); diff != "" {
		t.Fatalf("large record mismatch")
	}

	if lost := rxStats.PacketLoss.Load(); lost != 0 {
		t.Fatalf("packetloss = %d on a loopback channel, want 0", lost)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := txEng.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-rxDone:
		if err != nil {
			t.Fatalf("rx Run returned %v after shutdown sentinel, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("rx did not terminate on the shutdown sentinel burst")
	}
}
