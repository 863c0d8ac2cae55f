package httpc

import (
	"bytes"
	"testing"
)

func TestChunkedDecodeWhole(t *testing.T) {
	var d chunkedDecoder
	var out []byte
	in := []byte("5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n")
	n, done, err := d.feed(in, &out)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !done || n != len(in) {
		t.Fatalf("done=%v consumed=%d, want true,%d", done, n, len(in))
	}
	if !bytes.Equal(out, []byte("hello world")) {
		t.Fatalf("out = %q", out)
	}
}

func TestChunkedDecodeSplitAnywhere(t *testing.T) {
	in := []byte("b\r\nhello world\r\n5;ext=1\r\n tail\r\n0\r\nTrailer: x\r\n\r\n")
	want := "hello world tail"
	// Feed one byte at a time; the decoder must pick up mid-line,
	// mid-size and mid-data without losing bytes.
	var d chunkedDecoder
	var out []byte
	done := false
	for i := 0; i < len(in); i++ {
		n, dn, err := d.feed(in[i:i+1], &out)
		if err != nil {
			t.Fatalf("feed at byte %d: %v", i, err)
		}
		if n != 1 {
			t.Fatalf("feed at byte %d consumed %d", i, n)
		}
		done = dn
	}
	if !done {
		t.Fatalf("decoder never reported completion")
	}
	if string(out) != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestChunkedDecodeBadSize(t *testing.T) {
	var d chunkedDecoder
	var out []byte
	if _, _, err := d.feed([]byte("zz\r\n"), &out); err != ErrProtocol {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestChunkedDecodeMissingCRLF(t *testing.T) {
	var d chunkedDecoder
	var out []byte
	if _, _, err := d.feed([]byte("2\r\nabXY"), &out); err != ErrProtocol {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestChunkedDecodeStopsAtTrailingBytes(t *testing.T) {
	var d chunkedDecoder
	var out []byte
	in := []byte("1\r\nx\r\n0\r\n\r\nLEFTOVER")
	n, done, err := d.feed(in, &out)
	if err != nil || !done {
		t.Fatalf("feed = done=%v err=%v", done, err)
	}
	if string(in[n:]) != "LEFTOVER" {
		t.Fatalf("consumed %d, leftover %q", n, in[n:])
	}
}
