package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/evtxkit/internal/buf"
)

// ChunkHeader describes the fixed part of a 64KiB chunk. The dictionaries
// that follow it are walked by the evtx package because resolving them
// requires the BXML parser.
//
//	Offset  Size  Field
//	0x000   8     'E' 'l' 'f' 'C' 'h' 'n' 'k' 0x00
//	0x008   8     First event record number (log)
//	0x010   8     Last event record number (log)
//	0x018   8     First event record identifier (file)
//	0x020   8     Last event record identifier (file)
//	0x028   4     Header size (128)
//	0x02C   4     Offset of the last record
//	0x030   4     Offset of the free space (next record)
//	0x034   4     CRC32 of [0x200, free space offset)
//	0x078   4     Flags
//	0x07C   4     CRC32 of [0x000, 0x078) and [0x080, 0x200)
//	0x080   256   64 name string slots
//	0x180   128   32 template slots
type ChunkHeader struct {
	LogFirstRecordNumber  uint64
	LogLastRecordNumber   uint64
	FileFirstRecordNumber uint64
	FileLastRecordNumber  uint64
	HeaderSize            uint32
	LastRecordOffset      uint32
	NextRecordOffset      uint32
	DataChecksum          uint32
	Flags                 uint32
	HeaderChecksum        uint32
}

// ParseChunkHeader validates the signature, the header checksum and the
// record offsets of the chunk in b. It does not verify the data checksum;
// see VerifyChunkData.
func ParseChunkHeader(b []byte) (ChunkHeader, error) {
	if len(b) < ChunkHeaderSize {
		return ChunkHeader{}, fmt.Errorf("chunk header: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:SignatureSize], ChunkSignature) {
		return ChunkHeader{}, fmt.Errorf("chunk header: %w", ErrSignatureMismatch)
	}
	h := ChunkHeader{
		LogFirstRecordNumber:  buf.U64LE(b[ChunkLogFirstRecordOffset:]),
		LogLastRecordNumber:   buf.U64LE(b[ChunkLogLastRecordOffset:]),
		FileFirstRecordNumber: buf.U64LE(b[ChunkFileFirstRecordOffset:]),
		FileLastRecordNumber:  buf.U64LE(b[ChunkFileLastRecordOffset:]),
		HeaderSize:            buf.U32LE(b[ChunkHeaderSizeOffset:]),
		LastRecordOffset:      buf.U32LE(b[ChunkLastRecordOffset:]),
		NextRecordOffset:      buf.U32LE(b[ChunkNextRecordOffset:]),
		DataChecksum:          buf.U32LE(b[ChunkDataChecksumOffset:]),
		Flags:                 buf.U32LE(b[ChunkFlagsOffset:]),
		HeaderChecksum:        buf.U32LE(b[ChunkHeaderChecksumOffset:]),
	}
	if got := ChunkHeaderChecksum(b); got != h.HeaderChecksum {
		return ChunkHeader{}, fmt.Errorf("chunk header: %w (stored 0x%08x, computed 0x%08x)",
			ErrChecksum, h.HeaderChecksum, got)
	}
	if h.LastRecordOffset > MaxInt32 {
		return ChunkHeader{}, fmt.Errorf("chunk last record offset 0x%x: %w", h.LastRecordOffset, ErrSanityLimit)
	}
	if h.NextRecordOffset < ChunkHeaderSize || int(h.NextRecordOffset) > len(b) {
		return ChunkHeader{}, fmt.Errorf("chunk next record offset 0x%x: %w", h.NextRecordOffset, ErrSanityLimit)
	}
	return h, nil
}

// VerifyChunkData checks the CRC32 of the record area against the header.
func VerifyChunkData(b []byte, h ChunkHeader) error {
	if got := ChunkDataChecksum(b, h.NextRecordOffset); got != h.DataChecksum {
		return fmt.Errorf("chunk data: %w (stored 0x%08x, computed 0x%08x)", ErrChecksum, h.DataChecksum, got)
	}
	return nil
}

// StringSlot returns the name string offset stored in slot i.
func StringSlot(b []byte, i int) uint32 {
	return buf.U32LE(b[ChunkStringTableOffset+i*DWORDSize:])
}

// TemplateSlot returns the template offset stored in slot i.
func TemplateSlot(b []byte, i int) uint32 {
	return buf.U32LE(b[ChunkTemplateTableOffset+i*DWORDSize:])
}
