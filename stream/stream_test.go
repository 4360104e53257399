// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stream_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/opendiode/godiode/stream"
)

func TestWriterReaderRecordRoundTrip(t *testing.T) {
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
	defer reader.Close()

	writer := <-writerReady
	if writer == nil {
		t.Fatal("writer setup failed")
	}
	defer writer.Close()

	messages := [][]byte{
		[]byte("hello"),
		[]byte(""),
		make([]byte, 70000),
	}
	for i := range messages[2] {
		messages[2][i] = byte(i)
	}

	go func() {
		for _, m := range messages {
			if err := writer.WriteRecord(m); err != nil {
				t.Errorf("WriteRecord: %v", err)
				return
			}
		}
	}()

	var dst []byte
	for i, want := range messages {
		rec, err := reader.ReadRecord(dst)
		if err != nil {
			t.Fatalf("ReadRecord[%d]: %v", i, err)
		}
		dst = rec
		if string(rec) != string(want) {
			t.Fatalf("record %d mismatch: got %d bytes, want %d bytes", i, len(rec), len(want))
		}
	}
}

func TestReadRecordTooLong(t *testing.T) {
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
	reader, err := stream.DialReader(ctx, path, stream.WithMaxRecordLen(10), stream.WithPathPollInterval(10*time.Millisecond), stream.WithConnectRetryDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("DialReader: %v", err)
	}
	defer reader.Close()

	writer := <-writerReady
	defer writer.Close()

	go writer.WriteRecord(make([]byte, 11))

	if _, err := reader.ReadRecord(nil); err != stream.ErrTooLong {
		t.Fatalf("ReadRecord = %v, want ErrTooLong", err)
	}
}
