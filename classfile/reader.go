package classfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// reader is a forward-only big-endian cursor over a class file. The first
// error is sticky: once set, every read returns a zero value.
//
// Each begin pushes a byte counter and every read advances all open
// counters, so an enclosing region also accounts for the bytes of the
// regions nested inside it.
type reader struct {
	r      *bufio.Reader
	err    error
	counts []uint64
	buf    [8]byte
}

func newReader(rd io.Reader) *reader {
	if br, ok := rd.(*bufio.Reader); ok {
		return &reader{r: br}
	}
	return &reader{r: bufio.NewReader(rd)}
}

func (r *reader) mark(n int) {
	for i := range r.counts {
		r.counts[i] += uint64(n)
	}
}

func (r *reader) fill(n int) []byte {
	if r.err != nil {
		return nil
	}
	b := r.buf[:n]
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = eof(err)
		return nil
	}
	r.mark(n)
	return b
}

func (r *reader) readU1() uint8 {
	b := r.fill(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) readU2() uint16 {
	b := r.fill(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) readU4() uint32 {
	b := r.fill(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) readU8() uint64 {
	b := r.fill(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) readI1() int8  { return int8(r.readU1()) }
func (r *reader) readI2() int16 { return int16(r.readU2()) }
func (r *reader) readI4() int32 { return int32(r.readU4()) }
func (r *reader) readI8() int64 { return int64(r.readU8()) }

func (r *reader) readF4() float32 { return math.Float32frombits(r.readU4()) }
func (r *reader) readF8() float64 { return math.Float64frombits(r.readU8()) }

// readBytes reads n raw bytes. The buffer grows with the data actually
// read, so a lying length on a short file fails without a large allocation.
func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	var buf bytes.Buffer
	read, err := io.CopyN(&buf, r.r, int64(n))
	r.mark(int(read))
	if err != nil {
		r.err = eof(err)
		return nil
	}
	return buf.Bytes()
}

func (r *reader) readString(n int) string {
	b := r.readBytes(n)
	if r.err != nil {
		return ""
	}
	s, err := decodeModifiedUtf8(b)
	if err != nil {
		r.err = err
		return ""
	}
	return s
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	skipped, err := r.r.Discard(n)
	r.mark(skipped)
	if err != nil {
		r.err = eof(err)
	}
}

// fail records err unless an earlier error is already sticky.
func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) begin() {
	r.counts = append(r.counts, 0)
}

// end closes the innermost region opened by begin and checks that exactly
// expected bytes were consumed inside it.
func (r *reader) end(expected uint32, what string) error {
	if len(r.counts) == 0 {
		return fmt.Errorf("end of %s without a matching begin", what)
	}
	got := r.counts[len(r.counts)-1]
	r.counts = r.counts[:len(r.counts)-1]
	if r.err != nil {
		return r.err
	}
	if got != uint64(expected) {
		return fmt.Errorf("%w: %s declared %d bytes but %d were read", ErrLengthMismatch, what, expected, got)
	}
	return nil
}

func eof(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// decodeModifiedUtf8 decodes the class file text encoding: UTF-8 where
// NUL is written as C0 80 and supplementary characters as surrogate pairs.
// Raw NUL bytes, four-byte forms and unpaired surrogates are rejected.
func decodeModifiedUtf8(b []byte) (string, error) {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), nil
	}

	runes := make([]rune, 0, len(b))
	cont := func(i int) bool { return i < len(b) && b[i]&0xC0 == 0x80 }
	three := func(i int) rune {
		return rune(b[i]&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
	}
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", fmt.Errorf("%w: raw NUL at offset %d", ErrInvalidUTF8, i)
		case c&0x80 == 0:
			runes = append(runes, rune(c))
			i++
		case c&0xE0 == 0xC0:
			if !cont(i + 1) {
				return "", fmt.Errorf("%w: truncated two-byte sequence at offset %d", ErrInvalidUTF8, i)
			}
			runes = append(runes, rune(c&0x1F)<<6|rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if !cont(i+1) || !cont(i+2) {
				return "", fmt.Errorf("%w: truncated three-byte sequence at offset %d", ErrInvalidUTF8, i)
			}
			ch := three(i)
			switch {
			case ch >= 0xDC00 && ch <= 0xDFFF:
				return "", fmt.Errorf("%w: unpaired low surrogate at offset %d", ErrInvalidUTF8, i)
			case ch >= 0xD800 && ch <= 0xDBFF:
				j := i + 3
				if j >= len(b) || b[j] != 0xED || !cont(j+1) || !cont(j+2) {
					return "", fmt.Errorf("%w: unpaired high surrogate at offset %d", ErrInvalidUTF8, i)
				}
				low := three(j)
				if low < 0xDC00 || low > 0xDFFF {
					return "", fmt.Errorf("%w: unpaired high surrogate at offset %d", ErrInvalidUTF8, i)
				}
				ch = 0x10000 + (ch-0xD800)<<10 + (low - 0xDC00)
				i += 6
			default:
				i += 3
			}
			runes = append(runes, ch)
		default:
			return "", fmt.Errorf("%w: unexpected byte 0x%02X at offset %d", ErrInvalidUTF8, c, i)
		}
	}
	return string(runes), nil
}
