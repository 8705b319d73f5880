package format

import (
	"encoding/binary"
	"hash/crc32"
)

// PutU16 writes a uint16 value to the buffer at the specified offset in little-endian format.
func PutU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// FileChecksum computes the CRC32 stored at FileChecksumOffset.
func FileChecksum(header []byte) uint32 {
	return crc32.ChecksumIEEE(header[:FileChecksumLength])
}

// ChunkHeaderChecksum computes the CRC32 stored at ChunkHeaderChecksumOffset.
// It covers [0, 0x78) and [0x80, 0x200); the flags and checksum fields are skipped.
func ChunkHeaderChecksum(chunk []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(chunk[:ChunkChecksumHeadLength])
	crc.Write(chunk[ChunkStringTableOffset:ChunkHeaderSize])
	return crc.Sum32()
}

// ChunkDataChecksum computes the CRC32 of the record area [0x200, nextRecordOffset).
func ChunkDataChecksum(chunk []byte, nextRecordOffset uint32) uint32 {
	return crc32.ChecksumIEEE(chunk[ChunkHeaderSize:nextRecordOffset])
}
