package httpc

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
)

// Client-side WebSocket handshake and frame codec. After a successful
// upgrade the exchange stays open and frame bytes flow through the
// streamed body path.

const wsGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// WsOp is a WebSocket frame opcode.
type WsOp byte

const (
	WsContinuation WsOp = 0x0
	WsText         WsOp = 0x1
	WsBinary       WsOp = 0x2
	WsClose        WsOp = 0x8
	WsPing         WsOp = 0x9
	WsPong         WsOp = 0xa
)

func genWsKey() string {
	var b [16]byte
	rand.Read(b[:])
	return base64.StdEncoding.EncodeToString(b[:])
}

// wsAccept computes the Sec-WebSocket-Accept value for a key.
func wsAccept(key string) string {
	h := sha1.Sum([]byte(key + wsGUID))
	return base64.StdEncoding.EncodeToString(h[:])
}

// WsFrame encodes one client frame (fin set, masked as required of
// clients) and returns the wire bytes.
func WsFrame(op WsOp, payload []byte) []byte {
	var mask [4]byte
	rand.Read(mask[:])
	n := len(payload)
	buf := make([]byte, 0, 14+n)
	buf = append(buf, 0x80|byte(op))
	switch {
	case n < 126:
		buf = append(buf, 0x80|byte(n))
	case n < 1<<16:
		buf = append(buf, 0x80|126, byte(n>>8), byte(n))
	default:
		buf = append(buf, 0x80|127)
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(n))
		buf = append(buf, ext[:]...)
	}
	buf = append(buf, mask[:]...)
	off := len(buf)
	buf = append(buf, payload...)
	for i := 0; i < n; i++ {
		buf[off+i] ^= mask[i%4]
	}
	return buf
}

// ParseWsFrame decodes one server frame from b. It returns the opcode,
// the payload, how many bytes of b were consumed and whether the frame
// carried the fin bit. consumed is 0 while the frame is incomplete.
// Server frames must be unmasked; a masked frame is a protocol error.
func ParseWsFrame(b []byte) (op WsOp, payload []byte, consumed int, fin bool, err error) {
	if len(b) < 2 {
		return 0, nil, 0, false, nil
	}
	fin = b[0]&0x80 != 0
	op = WsOp(b[0] & 0x0f)
	if b[1]&0x80 != 0 {
		return 0, nil, 0, false, ErrProtocol
	}
	n := int64(b[1] & 0x7f)
	head := 2
	switch n {
	case 126:
		if len(b) < 4 {
			return 0, nil, 0, false, nil
		}
		n = int64(binary.BigEndian.Uint16(b[2:4]))
		head = 4
	case 127:
		if len(b) < 10 {
			return 0, nil, 0, false, nil
		}
		v := binary.BigEndian.Uint64(b[2:10])
		if v > 1<<31 {
			return 0, nil, 0, false, ErrProtocol
		}
		n = int64(v)
		head = 10
	}
	if int64(len(b)) < int64(head)+n {
		return 0, nil, 0, false, nil
	}
	return op, b[head : int64(head)+n], head + int(n), fin, nil
}
