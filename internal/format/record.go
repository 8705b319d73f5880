package format

import (
	"fmt"

	"github.com/joshuapare/evtxkit/internal/buf"
)

// RecordHeader holds the fixed prefix of an event record.
//
//	Offset  Size  Field
//	0x00    4     0x2A 0x2A 0x00 0x00
//	0x04    4     Record size (including header and trailing echo)
//	0x08    8     Record number
//	0x10    8     Written time (FILETIME)
//	0x18    ...   BXML fragment
//	size-4  4     Copy of the record size
type RecordHeader struct {
	Size    uint32
	Number  uint64
	Written uint64
}

// ParseRecordHeader validates the record magic and declared size in b.
func ParseRecordHeader(b []byte) (RecordHeader, error) {
	if len(b) < RecordHeaderSize {
		return RecordHeader{}, fmt.Errorf("record header: %w", ErrTruncated)
	}
	if magic := buf.U32LE(b); magic != RecordMagic {
		return RecordHeader{}, fmt.Errorf("record header: %w (magic 0x%08x)", ErrSignatureMismatch, magic)
	}
	h := RecordHeader{
		Size:    buf.U32LE(b[RecordSizeOffset:]),
		Number:  buf.U64LE(b[RecordNumberOffset:]),
		Written: buf.U64LE(b[RecordTimeOffset:]),
	}
	if h.Size > RecordMaxSize {
		return RecordHeader{}, fmt.Errorf("record size 0x%x exceeds 0x%x: %w", h.Size, RecordMaxSize, ErrSanityLimit)
	}
	if h.Size < RecordMinSize {
		return RecordHeader{}, fmt.Errorf("record size 0x%x below 0x%x: %w", h.Size, RecordMinSize, ErrSanityLimit)
	}
	return h, nil
}
