// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package wire encodes and decodes the fixed 9-byte UDP packet header used
// by the transport engines to carry application message fragments across a
// one-way link.
package wire

import "encoding/binary"

// HeaderLen is the fixed on-wire size of a packet header in bytes.
const HeaderLen = 9

// MaxUDPPayload is the maximum number of payload bytes a single packet may
// carry, derived from the conventional UDP datagram ceiling minus HeaderLen.
const MaxUDPPayload = 65507 - HeaderLen

// Type identifies the purpose of a packet.
type Type uint8

const (
	// TypeStartUp marks the sentinel burst a TX engine sends before its main loop.
	TypeStartUp Type = 1
	// TypeHeartBeat is reserved for future keep-alive traffic; it never changes
	// RX reassembly state.
	TypeHeartBeat Type = 2
	// TypeDataFirst marks the first fragment of an application message.
	TypeDataFirst Type = 3
	// TypeData marks a non-first fragment of an application message.
	TypeData Type = 4
	// TypeShutdown marks the sentinel burst a TX engine sends when asked to stop.
	TypeShutdown Type = 5
)

func (t Type) String() string {
	switch t {
	case TypeStartUp:
		return "StartUp"
	case TypeHeartBeat:
		return "HeartBeat"
	case TypeDataFirst:
		return "DataFirst"
	case TypeData:
		return "Data"
	case TypeShutdown:
		return "Shutdown"
	default:
		return "DataFirst(coerced)"
	}
}

// Header is the decoded form of the 9-byte on-wire packet header.
type Header struct {
	Type               Type
	Sequence           uint32
	PayloadLength      uint16
	RemainingFragments uint16
}

// Encode writes h into dst, which must be at least HeaderLen bytes long, and
// returns the number of bytes written.
func Encode(dst []byte, h Header) int {
	_ = dst[HeaderLen-1] // bounds check hint
	dst[0] = byte(h.Type)
	binary.LittleEndian.PutUint32(dst[1:5], h.Sequence)
	binary.LittleEndian.PutUint16(dst[5:7], h.PayloadLength)
	binary.LittleEndian.PutUint16(dst[7:9], h.RemainingFragments)
	return HeaderLen
}

// Decode reads a header from src, which must be at least HeaderLen bytes
// long. Decode is total: any type byte outside the five known values is
// coerced to TypeDataFirst rather than rejected, because the core never
// discards a datagram on header grounds alone — there is no retransmission
// to recover from a dropped rejection.
func Decode(src []byte) Header {
	_ = src[HeaderLen-1]
	t := Type(src[0])
	switch t {
	case TypeStartUp, TypeHeartBeat, TypeDataFirst, TypeData, TypeShutdown:
	default:
		t = TypeDataFirst
	}
	return Header{
		Type:               t,
		Sequence:           binary.LittleEndian.Uint32(src[1:5]),
		PayloadLength:      binary.LittleEndian.Uint16(src[5:7]),
		RemainingFragments: binary.LittleEndian.Uint16(src[7:9]),
	}
}
