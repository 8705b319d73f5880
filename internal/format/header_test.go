package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validFileHeader(chunks uint16) []byte {
	b := make([]byte, FileHeaderSize)
	copy(b, FileSignature)
	PutU64(b, FileNextRecordOffset, 1)
	PutU32(b, FileHeaderSizeOffset, 0x80)
	PutU16(b, FileMinorVersionOffset, FileMinorVersion)
	PutU16(b, FileMajorVersionOffset, FileMajorVersion)
	PutU16(b, FileHeaderBlockSizeOffset, FileHeaderBlockSize)
	PutU16(b, FileChunkCountOffset, chunks)
	PutU32(b, FileChecksumOffset, FileChecksum(b))
	return b
}

func TestParseFileHeaderSuccess(t *testing.T) {
	h, err := ParseFileHeader(validFileHeader(3))
	require.NoError(t, err)
	require.Equal(t, uint16(3), h.ChunkCount)
	require.Equal(t, uint16(FileMinorVersion), h.MinorVersion)
	require.Equal(t, uint16(FileMajorVersion), h.MajorVersion)
	require.Equal(t, uint64(1), h.NextRecord)
}

func TestParseFileHeaderErrors(t *testing.T) {
	_, err := ParseFileHeader(validFileHeader(0)[:10])
	require.ErrorIs(t, err, ErrTruncated)

	bad := validFileHeader(0)
	copy(bad, "BadFile\x00")
	_, err = ParseFileHeader(bad)
	require.ErrorIs(t, err, ErrSignatureMismatch)

	wrongVersion := validFileHeader(0)
	PutU16(wrongVersion, FileMajorVersionOffset, 2)
	PutU32(wrongVersion, FileChecksumOffset, FileChecksum(wrongVersion))
	_, err = ParseFileHeader(wrongVersion)
	require.ErrorIs(t, err, ErrVersion)

	wrongBlock := validFileHeader(0)
	PutU16(wrongBlock, FileHeaderBlockSizeOffset, 0x200)
	PutU32(wrongBlock, FileChecksumOffset, FileChecksum(wrongBlock))
	_, err = ParseFileHeader(wrongBlock)
	require.ErrorIs(t, err, ErrVersion)
}

func TestParseFileHeaderChecksumCoversEveryByte(t *testing.T) {
	for i := SignatureSize; i < FileChecksumLength; i++ {
		b := validFileHeader(1)
		b[i] ^= 0xFF
		_, err := ParseFileHeader(b)
		require.ErrorIs(t, err, ErrChecksum, "flipped byte 0x%x", i)
	}
}
