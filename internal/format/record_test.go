package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRecordHeader(t *testing.T) {
	b := make([]byte, RecordHeaderSize)
	PutU32(b, 0, RecordMagic)
	PutU32(b, RecordSizeOffset, 0x40)
	PutU64(b, RecordNumberOffset, 77)
	PutU64(b, RecordTimeOffset, 0x01d2d0f5a4f2e000)

	h, err := ParseRecordHeader(b)
	require.NoError(t, err)
	require.Equal(t, uint32(0x40), h.Size)
	require.Equal(t, uint64(77), h.Number)
	require.Equal(t, uint64(0x01d2d0f5a4f2e000), h.Written)

	PutU32(b, RecordSizeOffset, RecordMaxSize+1)
	_, err = ParseRecordHeader(b)
	require.ErrorIs(t, err, ErrSanityLimit)

	PutU32(b, RecordSizeOffset, 4)
	_, err = ParseRecordHeader(b)
	require.ErrorIs(t, err, ErrSanityLimit)

	PutU32(b, 0, 0x2A2B)
	_, err = ParseRecordHeader(b)
	require.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = ParseRecordHeader(b[:8])
	require.ErrorIs(t, err, ErrTruncated)
}
