package types

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFormat      ErrKind = iota // bad signature, version or size constant
	ErrKindChecksum                   // stored CRC32 does not match the data
	ErrKindCorrupt                    // structural corruption (bad token, offset, size echo)
	ErrKindUnsupported                // well-formed input we do not decode (unknown value type)
	ErrKindTruncated                  // the stream ended before a structure was complete
	ErrKindWrite                      // the output consumer failed; not a decode error
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindFormat:
		return "format"
	case ErrKindChecksum:
		return "checksum"
	case ErrKindCorrupt:
		return "corrupt"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindTruncated:
		return "truncated"
	case ErrKindWrite:
		return "write"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel (an *Error without a cause) of the
// same kind, so errors.Is(err, ErrChecksum) matches any checksum failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrNotEVTX indicates the input lacks a valid "ElfFile" header.
	ErrNotEVTX = &Error{Kind: ErrKindFormat, Msg: "not an EVTX file"}
	// ErrChecksum indicates a header or data CRC32 mismatch.
	ErrChecksum = &Error{Kind: ErrKindChecksum, Msg: "checksum mismatch"}
	// ErrCorrupt indicates non-recoverable structural inconsistency.
	ErrCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt event log structure"}
	// ErrUnsupported indicates a recognized but unsupported encoding.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "unsupported event log feature"}
	// ErrTruncated indicates the input ended early.
	ErrTruncated = &Error{Kind: ErrKindTruncated, Msg: "truncated input"}
	// ErrWrite indicates the rendering destination failed.
	ErrWrite = &Error{Kind: ErrKindWrite, Msg: "output write failed"}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------
// Metadata
// -----------------------------------------------------------------------------

// FileInfo exposes the EVTX file header.
type FileInfo struct {
	FirstChunk      uint64 // oldest chunk number
	LastChunk       uint64 // current chunk number
	NextRecord      uint64 // identifier the next written record will get
	MajorVersion    uint16
	MinorVersion    uint16
	HeaderBlockSize uint16
	ChunkCount      int    // chunks declared by the header
	Flags           uint32 // 0x1 dirty, 0x2 full
	Checksum        uint32
}

// ChunkInfo exposes a chunk header.
type ChunkInfo struct {
	Index            int   // position in the file, from zero
	Offset           int64 // absolute offset of the chunk window
	FirstRecord      uint64
	LastRecord       uint64
	LastRecordOffset uint32
	NextRecordOffset uint32
	Flags            uint32
}

// RecordInfo exposes an event record header.
type RecordInfo struct {
	Chunk   int
	Number  uint64
	Written time.Time
	Offset  int // chunk-relative
	Size    uint32
}

// Stats summarizes a full pass over a file.
type Stats struct {
	Chunks          int `json:"chunks"`
	MalformedChunks int `json:"malformed_chunks"`
	Records         int `json:"records"`
	FailedRecords   int `json:"failed_records"`
	Templates       int `json:"templates"`
	NameStrings     int `json:"name_strings"`
}

// -----------------------------------------------------------------------------
// Open Options
// -----------------------------------------------------------------------------

// OpenOptions controls how a file is decoded. The zero value decodes strictly
// and logs nothing.
type OpenOptions struct {
	// Logger receives dictionary warnings and malformed chunk notices.
	// Nil discards them.
	Logger *slog.Logger

	// ResyncRecords continues with the next record of a chunk after a record
	// fails to decode, provided the failed record's header was readable.
	// Without it the rest of the chunk is abandoned because the position of
	// the next record is unknown.
	ResyncRecords bool

	// Limits caps how much of the file is visited. Zero fields mean no limit.
	Limits Limits
}

// Limits bounds a pass over a file. Decoding stops quietly once a limit is
// reached; it is not an error.
type Limits struct {
	MaxChunks  int
	MaxRecords int
}

// ChunksReached reports whether n visited chunks exhaust the limit.
func (l Limits) ChunksReached(n int) bool { return l.MaxChunks > 0 && n >= l.MaxChunks }

// RecordsReached reports whether n visited records exhaust the limit.
func (l Limits) RecordsReached(n int) bool { return l.MaxRecords > 0 && n >= l.MaxRecords }
