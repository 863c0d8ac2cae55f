package httpc

import (
	"bytes"
	"testing"
)

// Known-answer vector from RFC 6455 §1.3.
func TestWsAccept(t *testing.T) {
	got := wsAccept("dGhlIHNhbXBsZSBub25jZQ==")
	if got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Fatalf("wsAccept = %q", got)
	}
}

func TestWsFrameRoundTrip(t *testing.T) {
	payload := []byte("hello over ws")
	frame := WsFrame(WsText, payload)
	// Client frames are masked; unmask by hand to check the codec.
	if frame[0] != 0x80|byte(WsText) {
		t.Fatalf("first byte = %#x", frame[0])
	}
	if frame[1]&0x80 == 0 {
		t.Fatalf("client frame must set the mask bit")
	}
	n := int(frame[1] & 0x7f)
	if n != len(payload) {
		t.Fatalf("encoded length = %d, want %d", n, len(payload))
	}
	mask := frame[2:6]
	body := append([]byte(nil), frame[6:]...)
	for i := range body {
		body[i] ^= mask[i%4]
	}
	if !bytes.Equal(body, payload) {
		t.Fatalf("unmasked payload = %q", body)
	}
}

func TestParseWsFrame(t *testing.T) {
	// Unmasked server text frame, fin set.
	payload := []byte("pong body")
	frame := append([]byte{0x80 | byte(WsText), byte(len(payload))}, payload...)
	op, got, consumed, fin, err := ParseWsFrame(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op != WsText || !fin || consumed != len(frame) || !bytes.Equal(got, payload) {
		t.Fatalf("parse = op=%d fin=%v consumed=%d payload=%q", op, fin, consumed, got)
	}
}

func TestParseWsFrameIncomplete(t *testing.T) {
	frame := append([]byte{0x80 | byte(WsBinary), 10}, []byte("short")...)
	for i := 0; i <= len(frame); i++ {
		_, _, consumed, _, err := ParseWsFrame(frame[:i])
		if err != nil {
			t.Fatalf("parse at %d bytes: %v", i, err)
		}
		if consumed != 0 {
			t.Fatalf("incomplete frame at %d bytes must consume nothing, got %d", i, consumed)
		}
	}
}

func TestParseWsFrameRejectsMaskedServerFrame(t *testing.T) {
	frame := []byte{0x80 | byte(WsText), 0x80 | 1, 0, 0, 0, 0, 'x'}
	if _, _, _, _, err := ParseWsFrame(frame); err != ErrProtocol {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestParseWsFrameExtendedLength(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 200)
	frame := append([]byte{0x80 | byte(WsBinary), 126, 0, 200}, payload...)
	op, got, consumed, _, err := ParseWsFrame(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op != WsBinary || consumed != len(frame) || len(got) != 200 {
		t.Fatalf("parse = op=%d consumed=%d len=%d", op, consumed, len(got))
	}
}
