package httpc

// Incremental chunked-transfer decoder. Unlike a bufio-backed reader
// it accepts whatever bytes have arrived so far and picks up where it
// left off on the next drive step.

type chunkState int

const (
	chunkSize chunkState = iota
	chunkData
	chunkDataCR
	chunkDataLF
	chunkTrailer
	chunkDone
)

type chunkedDecoder struct {
	state  chunkState
	remain int64
	line   []byte
}

const maxChunkLine = 256

// feed consumes raw bytes from src, appending decoded body bytes to
// *dst. It returns how many src bytes were consumed and whether the
// final chunk and trailers have been fully read. Incomplete input is
// not an error; call feed again once more bytes arrive.
func (d *chunkedDecoder) feed(src []byte, dst *[]byte) (int, bool, error) {
	pos := 0
	for pos < len(src) {
		switch d.state {
		case chunkSize, chunkTrailer:
			end := lineEnd(src, pos)
			if end < 0 {
				d.line = append(d.line, src[pos:]...)
				if len(d.line) > maxChunkLine {
					return pos, false, ErrProtocol
				}
				return len(src), false, nil
			}
			d.line = append(d.line, src[pos:end]...)
			pos = end
			line := trimCRLF(d.line)
			if d.state == chunkTrailer {
				d.line = d.line[:0]
				if len(line) == 0 {
					d.state = chunkDone
					return pos, true, nil
				}
				continue
			}
			n, err := parseChunkSize(line)
			d.line = d.line[:0]
			if err != nil {
				return pos, false, err
			}
			if n == 0 {
				d.state = chunkTrailer
				continue
			}
			d.remain = n
			d.state = chunkData
		case chunkData:
			take := int64(len(src) - pos)
			if take > d.remain {
				take = d.remain
			}
			*dst = append(*dst, src[pos:pos+int(take)]...)
			pos += int(take)
			d.remain -= take
			if d.remain == 0 {
				d.state = chunkDataCR
			}
		case chunkDataCR:
			if src[pos] != '\r' {
				return pos, false, ErrProtocol
			}
			pos++
			d.state = chunkDataLF
		case chunkDataLF:
			if src[pos] != '\n' {
				return pos, false, ErrProtocol
			}
			pos++
			d.state = chunkSize
		case chunkDone:
			return pos, true, nil
		}
	}
	return pos, d.state == chunkDone, nil
}

func parseChunkSize(line []byte) (int64, error) {
	if i := indexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = trimOWS(line)
	if len(line) == 0 {
		return 0, ErrProtocol
	}
	var n int64
	for _, c := range line {
		var v int64
		switch {
		case c >= '0' && c <= '9':
			v = int64(c - '0')
		case c >= 'a' && c <= 'f':
			v = int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v = int64(c-'A') + 10
		default:
			return 0, ErrProtocol
		}
		n = n<<4 | v
		if n < 0 {
			return 0, ErrProtocol
		}
	}
	return n, nil
}
