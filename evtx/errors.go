package evtx

import (
	"errors"
	"fmt"

	"github.com/joshuapare/evtxkit/evtx/binxml"
	"github.com/joshuapare/evtxkit/internal/format"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// ErrSizeEcho indicates a record whose trailing size copy differs from its
// declared size.
var ErrSizeEcho = errors.New("evtx: record size echo mismatch")

// MalformedChunkError reports a chunk that failed signature, checksum or
// structural validation. It only concerns that chunk.
type MalformedChunkError struct {
	Index  int
	Offset int64
	// Data is the chunk's complete 64KiB window exactly as read.
	Data []byte
	Err  error
}

func (e *MalformedChunkError) Error() string {
	return fmt.Sprintf("evtx: malformed chunk %d at 0x%x: %v", e.Index, e.Offset, e.Err)
}

func (e *MalformedChunkError) Unwrap() error { return e.Err }

// Discard drops the retained chunk bytes once they have been persisted.
func (e *MalformedChunkError) Discard() { e.Data = nil }

// RecordError reports a record that failed to decode.
type RecordError struct {
	Chunk  int
	Offset int    // chunk-relative
	Number uint64 // zero when the header itself was unreadable
	Err    error
}

func (e *RecordError) Error() string {
	if e.Number != 0 {
		return fmt.Sprintf("evtx: chunk %d record %d at 0x%x: %v", e.Chunk, e.Number, e.Offset, e.Err)
	}
	return fmt.Sprintf("evtx: chunk %d record at 0x%x: %v", e.Chunk, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// IsMalformedChunk reports whether err is chunk-scoped, so iteration over the
// file may continue.
func IsMalformedChunk(err error) bool {
	var m *MalformedChunkError
	return errors.As(err, &m)
}

// classify wraps a decoder error in the public error taxonomy.
func classify(msg string, err error) error {
	kind := types.ErrKindCorrupt
	switch {
	case errors.Is(err, format.ErrChecksum):
		kind = types.ErrKindChecksum
	case errors.Is(err, format.ErrSignatureMismatch), errors.Is(err, format.ErrVersion):
		kind = types.ErrKindFormat
	case errors.Is(err, format.ErrTruncated):
		kind = types.ErrKindTruncated
	case errors.Is(err, binxml.ErrUnknownValueType):
		kind = types.ErrKindUnsupported
	}
	return &types.Error{Kind: kind, Msg: msg, Err: err}
}
