// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stream_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stream"
)

func TestBufferedWriterReaderBridgeRings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rendezvous.sock")

	writerReady := make(chan *stream.Writer, 1)
	go func() {
		w, err := stream.ListenWriter(path)
		if err != nil {
			t.Errorf("ListenWriter: %v", err)
			close(writerReady)
			return
		}
		writerReady <- w
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reader, err := stream.DialReader(ctx, path, stream.WithPathPollInterval(10*time.Millisecond), stream.WithConnectRetryDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("DialReader: %v", err)
	}
	writer := <-writerReady
	if writer == nil {
		t.Fatal("writer setup failed")
	}

	srcRing := ring.New(1 << 16)
	dstRing := ring.New(1 << 16)

	bw := stream.NewBufferedWriter(writer, srcRing)
	br := stream.NewBufferedReader(reader, dstRing)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go bw.Run(runCtx)
	go br.Run(runCtx)

	want := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma-longer-payload")}
	for _, m := range want {
		if err := srcRing.PutRecordBlocking(ctx, m); err != nil {
			t.Fatalf("PutRecordBlocking: %v", err)
		}
	}

	var dst []byte
	for i, w := range want {
		rec, err := dstRing.GetRecordBlocking(ctx, dst)
		if err != nil {
			t.Fatalf("GetRecordBlocking[%d]: %v", i, err)
		}
		dst = rec
		if string(rec) != string(w) {
			t.Fatalf("record %d = %q, want %q", i, rec, w)
		}
	}
}
