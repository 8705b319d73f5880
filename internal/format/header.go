package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/evtxkit/internal/buf"
)

// FileHeader captures the fixed fields of the EVTX file header. The diagram
// below highlights the offsets we care about.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   8    'E' 'l' 'f' 'F' 'i' 'l' 'e' 0x00
//	 0x008   8    First (oldest) chunk number
//	 0x010   8    Last (current) chunk number
//	 0x018   8    Next record identifier
//	 0x020   4    Header size (128)
//	 0x024   2    Minor version (1)
//	 0x026   2    Major version (3)
//	 0x028   2    Header block size (4096)
//	 0x02A   2    Number of chunks
//	 0x078   4    File flags
//	 0x07C   4    CRC32 of bytes [0x000, 0x078)
type FileHeader struct {
	FirstChunk      uint64
	LastChunk       uint64
	NextRecord      uint64
	HeaderSize      uint32
	MinorVersion    uint16
	MajorVersion    uint16
	HeaderBlockSize uint16
	ChunkCount      uint16
	Flags           uint32
	Checksum        uint32
}

// ParseFileHeader validates and extracts the EVTX file header from b.
func ParseFileHeader(b []byte) (FileHeader, error) {
	if len(b) < FileHeaderSize {
		return FileHeader{}, fmt.Errorf("file header: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:SignatureSize], FileSignature) {
		return FileHeader{}, fmt.Errorf("file header: %w", ErrSignatureMismatch)
	}
	h := FileHeader{
		FirstChunk:      buf.U64LE(b[FileFirstChunkOffset:]),
		LastChunk:       buf.U64LE(b[FileLastChunkOffset:]),
		NextRecord:      buf.U64LE(b[FileNextRecordOffset:]),
		HeaderSize:      buf.U32LE(b[FileHeaderSizeOffset:]),
		MinorVersion:    buf.U16LE(b[FileMinorVersionOffset:]),
		MajorVersion:    buf.U16LE(b[FileMajorVersionOffset:]),
		HeaderBlockSize: buf.U16LE(b[FileHeaderBlockSizeOffset:]),
		ChunkCount:      buf.U16LE(b[FileChunkCountOffset:]),
		Flags:           buf.U32LE(b[FileFlagsOffset:]),
		Checksum:        buf.U32LE(b[FileChecksumOffset:]),
	}
	if got := FileChecksum(b); got != h.Checksum {
		return FileHeader{}, fmt.Errorf("file header: %w (stored 0x%08x, computed 0x%08x)",
			ErrChecksum, h.Checksum, got)
	}
	if h.MinorVersion != FileMinorVersion || h.MajorVersion != FileMajorVersion {
		return FileHeader{}, fmt.Errorf("file header: %w %d.%d", ErrVersion, h.MajorVersion, h.MinorVersion)
	}
	if h.HeaderBlockSize != FileHeaderBlockSize {
		return FileHeader{}, fmt.Errorf("file header: %w (header block size %d)", ErrVersion, h.HeaderBlockSize)
	}
	return h, nil
}
