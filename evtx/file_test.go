package evtx

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/evtxkit/internal/format"
	"github.com/joshuapare/evtxkit/internal/testutil"
	"github.com/joshuapare/evtxkit/pkg/types"
)

const epochTicks = 116444736000000000

func emptyChunk(numbers ...uint64) []byte {
	c := testutil.NewChunk()
	for _, n := range numbers {
		c.AddRecord(n, epochTicks, testutil.EmptyRecordBody())
	}
	return c.Bytes()
}

func TestNewFile_ZeroChunks(t *testing.T) {
	f, err := NewFile(bytes.NewReader(testutil.File()), types.OpenOptions{})
	require.NoError(t, err)

	info := f.Header()
	require.Equal(t, 0, info.ChunkCount)
	require.Equal(t, uint16(3), info.MajorVersion)
	require.Equal(t, uint16(1), info.MinorVersion)
	require.Equal(t, uint16(format.FileHeaderBlockSize), info.HeaderBlockSize)

	_, err = f.Next()
	require.ErrorIs(t, err, io.EOF)

	for range f.Chunks() {
		t.Fatal("no chunks expected")
	}
}

func TestNewFile_HeaderErrors(t *testing.T) {
	_, err := NewFile(bytes.NewReader(make([]byte, 100)), types.OpenOptions{})
	require.ErrorIs(t, err, types.ErrTruncated)

	bad := testutil.FileHeader(0)
	bad[0] = 'X'
	_, err = NewFile(bytes.NewReader(bad), types.OpenOptions{})
	require.ErrorIs(t, err, types.ErrNotEVTX)
	require.ErrorIs(t, err, format.ErrSignatureMismatch)

	bad = testutil.FileHeader(0)
	bad[format.FileChunkCountOffset] = 9
	_, err = NewFile(bytes.NewReader(bad), types.OpenOptions{})
	require.ErrorIs(t, err, types.ErrChecksum)
}

func TestFile_SingleEmptyRecord(t *testing.T) {
	f, err := NewFile(bytes.NewReader(testutil.File(emptyChunk(1))), types.OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, f.Header().ChunkCount)

	c, err := f.Next()
	require.NoError(t, err)
	require.Equal(t, 0, c.Index)
	require.Equal(t, int64(format.FileHeaderSize), c.Offset)

	rec, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, uint64(1), rec.Number)
	require.Equal(t, int64(0), rec.Written.UnixMilli())
	require.Equal(t, format.ChunkFirstRecordOffset, rec.Offset)

	root := rec.Arena().Node(rec.Root)
	require.Len(t, root.Children, 1)
	require.Empty(t, root.Substitutions)

	_, err = c.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = f.Next()
	require.ErrorIs(t, err, io.EOF)
}

// Why this test: a chunk failure must carry the exact 64KiB window so it can
// be quarantined verbatim, and must not stop the following chunk.
func TestFile_MalformedChunkIsIsolated(t *testing.T) {
	bad := emptyChunk(1)
	bad[format.ChunkFileLastRecordOffset] ^= 0xFF
	want := append([]byte(nil), bad...)

	f, err := NewFile(bytes.NewReader(testutil.File(bad, emptyChunk(2))), types.OpenOptions{})
	require.NoError(t, err)

	_, err = f.Next()
	var mce *MalformedChunkError
	require.True(t, errors.As(err, &mce))
	require.True(t, IsMalformedChunk(err))
	require.Equal(t, 0, mce.Index)
	require.Equal(t, int64(format.FileHeaderSize), mce.Offset)
	require.Equal(t, want, mce.Data)
	require.Len(t, mce.Data, format.ChunkSize)
	require.ErrorIs(t, err, types.ErrChecksum)

	mce.Discard()
	require.Nil(t, mce.Data)

	c, err := f.Next()
	require.NoError(t, err)
	require.Equal(t, 1, c.Index)
	rec, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, uint64(2), rec.Number)
}

func TestFile_ChunksSequence(t *testing.T) {
	bad := emptyChunk(1)
	copy(bad, "NotChnk\x00")
	f, err := NewFile(bytes.NewReader(testutil.File(emptyChunk(1), bad, emptyChunk(3))), types.OpenOptions{})
	require.NoError(t, err)

	var good, malformed []int
	for c, err := range f.Chunks() {
		if err != nil {
			var mce *MalformedChunkError
			require.True(t, errors.As(err, &mce))
			require.ErrorIs(t, err, types.ErrNotEVTX)
			malformed = append(malformed, mce.Index)
			continue
		}
		good = append(good, c.Index)
	}
	require.Equal(t, []int{0, 2}, good)
	require.Equal(t, []int{1}, malformed)
}

func TestFile_ShortReads(t *testing.T) {
	data := testutil.File(emptyChunk(1, 2), emptyChunk(3))
	f, err := NewFile(iotest.OneByteReader(bytes.NewReader(data)), types.OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, f.Header().ChunkCount)

	var numbers []uint64
	for c, err := range f.Chunks() {
		require.NoError(t, err)
		for rec, err := range c.Records() {
			require.NoError(t, err)
			numbers = append(numbers, rec.Number)
		}
	}
	require.Equal(t, []uint64{1, 2, 3}, numbers)
}

func TestFile_ReadErrorIsNotTruncation(t *testing.T) {
	_, err := NewFile(iotest.ErrReader(io.ErrClosedPipe), types.OpenOptions{})
	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.NotErrorIs(t, err, types.ErrTruncated)
}

func TestFile_TruncatedChunkIsFatal(t *testing.T) {
	data := testutil.File(emptyChunk(1))
	data = data[:len(data)-10]

	f, err := NewFile(bytes.NewReader(data), types.OpenOptions{})
	require.NoError(t, err)

	_, err = f.Next()
	require.ErrorIs(t, err, types.ErrTruncated)
	require.False(t, IsMalformedChunk(err))

	_, err2 := f.Next()
	require.Equal(t, err, err2)

	n := 0
	for _, err := range f.Chunks() {
		require.Error(t, err)
		n++
	}
	require.Equal(t, 1, n)
}

func TestFile_Limits(t *testing.T) {
	data := testutil.File(emptyChunk(1, 2), emptyChunk(3))

	f, err := NewFile(bytes.NewReader(data), types.OpenOptions{Limits: types.Limits{MaxChunks: 1}})
	require.NoError(t, err)
	_, err = f.Next()
	require.NoError(t, err)
	_, err = f.Next()
	require.ErrorIs(t, err, io.EOF)

	f, err = NewFile(bytes.NewReader(data), types.OpenOptions{Limits: types.Limits{MaxRecords: 1}})
	require.NoError(t, err)
	c, err := f.Next()
	require.NoError(t, err)
	_, err = c.Next()
	require.NoError(t, err)
	_, err = c.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestChunkOffset(t *testing.T) {
	require.Equal(t, int64(4096), ChunkOffset(0))
	require.Equal(t, int64(4096+2*65536), ChunkOffset(2))
}
