// Package format houses low-level decoders for the Windows XML Event Log
// (EVTX) container format. The goal is to keep the parsing focused,
// allocation-free where possible, and independent from the public API so
// higher-level packages can orchestrate the data in a more ergonomic form.
package format

var (
	// FileSignature is the eight-byte signature at the start of every EVTX file.
	FileSignature = []byte{'E', 'l', 'f', 'F', 'i', 'l', 'e', 0x00}

	// ChunkSignature is the eight-byte signature at the start of every chunk.
	ChunkSignature = []byte{'E', 'l', 'f', 'C', 'h', 'n', 'k', 0x00}
)

const (
	// SignatureSize is the length of the file and chunk signatures.
	SignatureSize = 8

	// ============================================================================
	// File header
	// ============================================================================

	// FileHeaderSize is the size of the file header block. The fixed fields
	// occupy the first 128 bytes; the remainder is padding up to the first chunk.
	FileHeaderSize = 0x1000

	FileFirstChunkOffset      = 0x08
	FileLastChunkOffset       = 0x10
	FileNextRecordOffset      = 0x18
	FileHeaderSizeOffset      = 0x20
	FileMinorVersionOffset    = 0x24
	FileMajorVersionOffset    = 0x26
	FileHeaderBlockSizeOffset = 0x28
	FileChunkCountOffset      = 0x2A
	FileFlagsOffset           = 0x78
	FileChecksumOffset        = 0x7C

	// FileHeaderFieldSize is the value stored at FileHeaderSizeOffset.
	FileHeaderFieldSize = 0x80

	// FileChecksumLength is the number of leading header bytes covered by the
	// file header CRC32.
	FileChecksumLength = 0x78

	// Supported version constants.
	FileMinorVersion    = 1
	FileMajorVersion    = 3
	FileHeaderBlockSize = 0x1000

	// ============================================================================
	// Chunk header
	// ============================================================================

	// ChunkSize is the fixed size of every chunk window.
	ChunkSize = 0x10000

	// ChunkHeaderSize is the size of the chunk header including the string and
	// template dictionaries. The first record starts here.
	ChunkHeaderSize = 0x200

	ChunkLogFirstRecordOffset  = 0x08
	ChunkLogLastRecordOffset   = 0x10
	ChunkFileFirstRecordOffset = 0x18
	ChunkFileLastRecordOffset  = 0x20
	ChunkHeaderSizeOffset      = 0x28
	ChunkLastRecordOffset      = 0x2C
	ChunkNextRecordOffset      = 0x30
	ChunkDataChecksumOffset    = 0x34
	ChunkFlagsOffset           = 0x78
	ChunkHeaderChecksumOffset  = 0x7C

	// ChunkHeaderFieldSize is the value stored at ChunkHeaderSizeOffset.
	ChunkHeaderFieldSize = 0x80
	// ChunkFirstRecordOffset is where the first record of a chunk begins.
	ChunkFirstRecordOffset = ChunkHeaderSize

	// ChunkChecksumHeadLength is the length of the first region covered by the
	// chunk header CRC32; the second region is [ChunkStringTableOffset, ChunkHeaderSize).
	ChunkChecksumHeadLength = 0x78

	// ChunkStringTableOffset is where the 64 name string slots begin.
	ChunkStringTableOffset = 0x80
	// ChunkStringSlots is the number of name string hash buckets.
	ChunkStringSlots = 64
	// ChunkTemplateTableOffset is where the 32 template slots begin.
	ChunkTemplateTableOffset = 0x180
	// ChunkTemplateSlots is the number of template hash buckets.
	ChunkTemplateSlots = 32

	// TemplateGuardDistance is the distance from a template definition back to
	// the template instance token that introduced it.
	TemplateGuardDistance = 10
	// TemplateGuardToken is the byte expected at TemplateGuardDistance.
	TemplateGuardToken = 0x0C
	// TemplateSelfPointerDistance is the distance back to the DWORD that must
	// hold the template's own offset.
	TemplateSelfPointerDistance = 4
	// TemplateHeaderSize covers next offset, GUID and data length.
	TemplateHeaderSize = 0x18

	// ============================================================================
	// Event records
	// ============================================================================

	// RecordMagic is 0x00002A2A ("**\0\0").
	RecordMagic = 0x2A2A
	// RecordHeaderSize covers magic, size, record number and timestamp.
	RecordHeaderSize = 0x18
	// RecordMinSize is the header plus the trailing size echo.
	RecordMinSize = RecordHeaderSize + DWORDSize
	// RecordMaxSize bounds the declared record size.
	RecordMaxSize = 0x10000

	RecordSizeOffset   = 0x04
	RecordNumberOffset = 0x08
	RecordTimeOffset   = 0x10

	// ============================================================================
	// Primitive sizes
	// ============================================================================

	WORDSize  = 2
	DWORDSize = 4
	QWORDSize = 8
	GUIDSize  = 16

	// MaxInt32 is the upper bound the format places on several offsets and lengths.
	MaxInt32 = 1<<31 - 1
)
