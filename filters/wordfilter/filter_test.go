// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package wordfilter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opendiode/godiode/filters/wordfilter"
	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
)

func TestPassExactWord(t *testing.T) {
	f, err := wordfilter.New("DROPME")
	require.NoError(t, err)

	require.False(t, f.Pass([]byte("DROPME and more trailing bytes")))
	require.True(t, f.Pass([]byte("keep this record")))
}

func TestPassShortRecordAlwaysPasses(t *testing.T) {
	f, err := wordfilter.New("DROPME")
	require.NoError(t, err)

	require.True(t, f.Pass([]byte("short")))
}

func TestPassNonUTF8PrefixPasses(t *testing.T) {
	f, err := wordfilter.New("DROPME")
	require.NoError(t, err)

	record := append([]byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa}, "trailer"...)
	require.True(t, f.Pass(record))
}

func TestPassGlobPattern(t *testing.T) {
	f, err := wordfilter.New("DROP*")
	require.NoError(t, err)

	require.False(t, f.Pass([]byte("DROPX tail")))
	require.True(t, f.Pass([]byte("KEEPX tail")))
}

func TestStageForwardsSurvivorsAndCountsDrops(t *testing.T) {
	f, err := wordfilter.New("DROPME")
	require.NoError(t, err)

	in := ring.New(4096)
	out := ring.New(4096)
	h := stats.NewHandler()
	stage := wordfilter.NewStage(f, in, out, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- stage.Run(ctx) }()

	require.NoError(t, in.PutRecordBlocking(ctx, []byte("DROPME this one")))
	require.NoError(t, in.PutRecordBlocking(ctx, []byte("keep this one")))

	got, err := out.GetRecordBlocking(withTimeout(t), nil)
	require.NoError(t, err)
	require.Equal(t, "keep this one", string(got))

	deadline := time.Now().Add(time.Second)
	for h.DroppedPackets.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, uint64(1), h.DroppedPackets.Load())
	require.Equal(t, uint64(len("DROPME this one")), h.DroppedBytes.Load())

	cancel()
	<-done
}

func withTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}
