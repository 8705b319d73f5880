package testutil

import (
	"github.com/joshuapare/evtxkit/internal/format"
)

// Chunk assembles one 64KiB chunk. Records are appended in order starting at
// the first record offset; Bytes finalizes the header and both checksums.
type Chunk struct {
	data  []byte
	next  int
	first uint64
	last  uint64
	count int
}

// NewChunk returns an empty chunk builder.
func NewChunk() *Chunk {
	c := &Chunk{
		data: make([]byte, format.ChunkSize),
		next: format.ChunkFirstRecordOffset,
	}
	copy(c.data, format.ChunkSignature)
	return c
}

// BodyOffset returns the chunk offset at which the next record's BXML body
// will start.
func (c *Chunk) BodyOffset() int { return c.next + format.RecordHeaderSize }

// AddRecord appends a record with the given number, FILETIME and body.
func (c *Chunk) AddRecord(number, filetime uint64, body []byte) {
	rec := Record(number, filetime, body)
	copy(c.data[c.next:], rec)
	format.PutU32(c.data, format.ChunkLastRecordOffset, uint32(c.next))
	c.next += len(rec)
	if c.count == 0 {
		c.first = number
	}
	c.last = number
	c.count++
}

// Raw copies b into the record area at the next offset and advances past it.
func (c *Chunk) Raw(b []byte) {
	copy(c.data[c.next:], b)
	c.next += len(b)
}

// SetNameSlot stores a name string chain head in slot i.
func (c *Chunk) SetNameSlot(i int, off uint32) {
	format.PutU32(c.data, format.ChunkStringTableOffset+i*format.DWORDSize, off)
}

// SetTemplateSlot stores a template chain head in slot i.
func (c *Chunk) SetTemplateSlot(i int, off uint32) {
	format.PutU32(c.data, format.ChunkTemplateTableOffset+i*format.DWORDSize, off)
}

// Bytes finalizes the chunk and returns it. The builder stays usable.
func (c *Chunk) Bytes() []byte {
	b := c.data
	format.PutU64(b, format.ChunkLogFirstRecordOffset, c.first)
	format.PutU64(b, format.ChunkLogLastRecordOffset, c.last)
	format.PutU64(b, format.ChunkFileFirstRecordOffset, c.first)
	format.PutU64(b, format.ChunkFileLastRecordOffset, c.last)
	format.PutU32(b, format.ChunkHeaderSizeOffset, format.ChunkHeaderFieldSize)
	format.PutU32(b, format.ChunkNextRecordOffset, uint32(c.next))
	format.PutU32(b, format.ChunkDataChecksumOffset, format.ChunkDataChecksum(b, uint32(c.next)))
	format.PutU32(b, format.ChunkHeaderChecksumOffset, format.ChunkHeaderChecksum(b))
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Record encodes one event record around body.
func Record(number, filetime uint64, body []byte) []byte {
	size := format.RecordHeaderSize + len(body) + format.DWORDSize
	b := make([]byte, size)
	format.PutU32(b, 0, format.RecordMagic)
	format.PutU32(b, 4, uint32(size))
	format.PutU64(b, 8, number)
	format.PutU64(b, 16, filetime)
	copy(b[format.RecordHeaderSize:], body)
	format.PutU32(b, size-format.DWORDSize, uint32(size))
	return b
}

// FileHeader encodes a valid 4096-byte file header for chunkCount chunks.
func FileHeader(chunkCount int) []byte {
	b := make([]byte, format.FileHeaderSize)
	copy(b, format.FileSignature)
	format.PutU32(b, format.FileHeaderSizeOffset, format.FileHeaderFieldSize)
	format.PutU16(b, format.FileMinorVersionOffset, format.FileMinorVersion)
	format.PutU16(b, format.FileMajorVersionOffset, format.FileMajorVersion)
	format.PutU16(b, format.FileHeaderBlockSizeOffset, format.FileHeaderBlockSize)
	format.PutU16(b, format.FileChunkCountOffset, uint16(chunkCount))
	format.PutU32(b, format.FileChecksumOffset, format.FileChecksum(b))
	return b
}

// File concatenates a header and the given chunks.
func File(chunks ...[]byte) []byte {
	out := FileHeader(len(chunks))
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// EmptyRecordBody is a root holding only an end-of-stream token and no
// substitutions.
func EmptyRecordBody() []byte {
	return NewBXML(0).EOS().Substitutions().Bytes()
}
