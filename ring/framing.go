// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package ring

import (
	"context"
	"encoding/binary"

	"github.com/opendiode/godiode/internal/nativeint"
)

// lenFieldWidth is the width, in bytes, of the record length prefix: the
// native unsigned integer size encoded little-endian.
var lenFieldWidth = nativeint.Size()

// PutRecordBlocking reserves lenFieldWidth+len(payload) bytes, writes the
// length-prefixed record, and commits it. It blocks until space is
// available or ctx is done.
func (r *Ring) PutRecordBlocking(ctx context.Context, payload []byte) error {
	region, err := r.ReserveBlocking(ctx, lenFieldWidth+len(payload))
	if err != nil {
		return err
	}
	putLen(region, len(payload))
	copy(region[lenFieldWidth:], payload)
	r.Commit(len(region))
	return nil
}

// GetRecordBlocking reads the next length-prefixed record into dst,
// growing/replacing it if it is too small, and returns the record's bytes
// (a slice of dst). It blocks until the whole record is available.
func (r *Ring) GetRecordBlocking(ctx context.Context, dst []byte) ([]byte, error) {
	header, err := r.PeekBlocking(ctx, lenFieldWidth)
	if err != nil {
		return nil, err
	}
	n := getLen(header)
	full, err := r.PeekBlocking(ctx, lenFieldWidth+n)
	if err != nil {
		return nil, err
	}
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	copy(dst, full[lenFieldWidth:lenFieldWidth+n])
	r.Consume(lenFieldWidth + n)
	return dst, nil
}

func putLen(dst []byte, n int) {
	switch lenFieldWidth {
	case 8:
		binary.LittleEndian.PutUint64(dst, uint64(n))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(n))
	default:
		panic("ring: unsupported native word size")
	}
}

func getLen(src []byte) int {
	switch lenFieldWidth {
	case 8:
		return int(binary.LittleEndian.Uint64(src))
	case 4:
		return int(binary.LittleEndian.Uint32(src))
	default:
		panic("ring: unsupported native word size")
	}
}
