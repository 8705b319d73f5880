// Package cursor provides the position-tracked byte reader used by the EVTX
// decoders and the Block helper that gives every decoded structure a
// deterministic header length.
//
// A Reader never owns its bytes: derived readers (At, Fork, Bounded) share
// the same immutable buffer and only carry their own position, so several
// logical readers can walk one chunk at different offsets without
// disturbing each other.
package cursor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/evtxkit/internal/buf"
	"github.com/joshuapare/evtxkit/internal/format"
)

var (
	// ErrNoMark indicates Reset was called without a matching Mark.
	ErrNoMark = errors.New("cursor: reset without mark")
	// ErrNegativeLength indicates a read or skip with a negative length.
	ErrNegativeLength = errors.New("cursor: negative length")
	// ErrUnterminated indicates a narrow string had no NUL within its length.
	ErrUnterminated = errors.New("cursor: string not NUL terminated")
)

// Reader is a sequential little-endian reader over a shared byte slice.
type Reader struct {
	data  []byte
	start int // absolute offset the reader was created at
	pos   int // absolute offset of the next byte
	end   int // exclusive bound
	marks []int
}

// New returns a Reader positioned at the start of b.
func New(b []byte) *Reader {
	return &Reader{data: b, end: len(b)}
}

// ReadFrom reads exactly n bytes from src and returns a Reader over them.
// Short reads are retried until n bytes arrive or src is exhausted.
func ReadFrom(src io.Reader, n int) (*Reader, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(src, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read %d bytes: %w", n, format.ErrTruncated)
		}
		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}
	return New(b), nil
}

// At returns a new Reader over the same bytes positioned at the absolute
// offset off. The new reader keeps this reader's bound.
func (r *Reader) At(off int) *Reader {
	return &Reader{data: r.data, start: off, pos: off, end: r.end}
}

// Fork returns a new Reader positioned rel bytes after the current position.
func (r *Reader) Fork(rel int) *Reader {
	return r.At(r.pos + rel)
}

// Bounded returns a new Reader at the current position that refuses to read
// past n bytes from here.
func (r *Reader) Bounded(n int) *Reader {
	end := r.pos + n
	if n < 0 || end > r.end {
		end = r.end
	}
	return &Reader{data: r.data, start: r.pos, pos: r.pos, end: end}
}

// Offset returns the absolute offset of the next byte.
func (r *Reader) Offset() int { return r.pos }

// Pos returns the number of bytes consumed since the reader was created.
func (r *Reader) Pos() int { return r.pos - r.start }

// Len returns the number of readable bytes left.
func (r *Reader) Len() int {
	if r.pos >= r.end {
		return 0
	}
	return r.end - r.pos
}

// Data returns the shared underlying buffer.
func (r *Reader) Data() []byte { return r.data }

// Mark records the current position. Marks nest; Reset returns to the most
// recent unmatched one.
func (r *Reader) Mark() {
	r.marks = append(r.marks, r.pos)
}

// Reset restores the position saved by the most recent Mark.
func (r *Reader) Reset() error {
	n := len(r.marks)
	if n == 0 {
		return ErrNoMark
	}
	r.pos = r.marks[n-1]
	r.marks = r.marks[:n-1]
	return nil
}

func (r *Reader) peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if r.pos < 0 || r.pos > r.end {
		return nil, fmt.Errorf("read %d bytes at 0x%x: %w", n, r.pos, format.ErrTruncated)
	}
	b, ok := buf.Slice(r.data[:r.end], r.pos, n)
	if !ok {
		return nil, fmt.Errorf("read %d bytes at 0x%x: %w", n, r.pos, format.ErrTruncated)
	}
	return b, nil
}

func (r *Reader) take(n int) ([]byte, error) {
	b, err := r.peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += n
	return b, nil
}

// ReadByte consumes one byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// PeekByte returns the next byte without consuming it.
func (r *Reader) PeekByte() (byte, error) {
	b, err := r.peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes consumes n bytes. The returned slice aliases the shared buffer
// and must not be modified.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// PeekBytes returns the next n bytes without consuming them.
func (r *Reader) PeekBytes(n int) ([]byte, error) {
	return r.peek(n)
}

// Skip advances the position by n bytes. It never moves backward.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// ReadU16 consumes a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(format.WORDSize)
	if err != nil {
		return 0, err
	}
	return buf.U16LE(b), nil
}

// ReadU32 consumes a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(format.DWORDSize)
	if err != nil {
		return 0, err
	}
	return buf.U32LE(b), nil
}

// ReadU64 consumes a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(format.QWORDSize)
	if err != nil {
		return 0, err
	}
	return buf.U64LE(b), nil
}

// ReadU16BE consumes a big-endian uint16.
func (r *Reader) ReadU16BE() (uint16, error) {
	b, err := r.take(format.WORDSize)
	if err != nil {
		return 0, err
	}
	return buf.U16BE(b), nil
}

// ReadU32BE consumes a big-endian uint32.
func (r *Reader) ReadU32BE() (uint32, error) {
	b, err := r.take(format.DWORDSize)
	if err != nil {
		return 0, err
	}
	return buf.U32BE(b), nil
}

// ReadGUID consumes 16 bytes and returns the canonical GUID text.
func (r *Reader) ReadGUID() (string, error) {
	b, err := r.take(format.GUIDSize)
	if err != nil {
		return "", err
	}
	return format.GUIDString(b), nil
}

// ReadFiletime consumes a FILETIME and converts it at millisecond precision.
func (r *Reader) ReadFiletime() (time.Time, error) {
	v, err := r.ReadU64()
	if err != nil {
		return time.Time{}, err
	}
	return format.FiletimeToTime(v), nil
}

// ReadString consumes n bytes holding a NUL-terminated ANSI string. The
// terminator must appear within the n bytes; anything after it is skipped.
func (r *Reader) ReadString(n int) (string, error) {
	b, err := r.peek(n)
	if err != nil {
		return "", err
	}
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", fmt.Errorf("string of %d bytes at 0x%x: %w", n, r.pos, ErrUnterminated)
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b[:i])
	if err != nil {
		return "", fmt.Errorf("decode string at 0x%x: %w", r.pos, err)
	}
	r.pos += n
	return string(s), nil
}

// ReadWString consumes chars UTF-16LE code units and returns them as UTF-8.
// Trailing NUL characters are dropped.
func (r *Reader) ReadWString(chars int) (string, error) {
	if chars < 0 {
		return "", ErrNegativeLength
	}
	b, err := r.peek(chars * 2)
	if err != nil {
		return "", err
	}
	s, err := decodeUTF16LE(b)
	if err != nil {
		return "", fmt.Errorf("decode wide string at 0x%x: %w", r.pos, err)
	}
	r.pos += chars * 2
	return s, nil
}

// ReadBase64 consumes n bytes and returns their standard base64 encoding.
func (r *Reader) ReadBase64(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16LE converts UTF-16LE bytes to UTF-8, replacing unpaired
// surrogates and trimming trailing NULs.
func decodeUTF16LE(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\x00"), nil
}

// DecodeUTF16LE exposes the wide-string conversion for callers that already
// hold the bytes (string arrays are split before decoding).
func DecodeUTF16LE(b []byte) (string, error) {
	return decodeUTF16LE(b)
}
