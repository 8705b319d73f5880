package types

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("chunk 3: %w", &Error{Kind: ErrKindChecksum, Msg: "chunk header", Err: io.ErrUnexpectedEOF})

	require.True(t, errors.Is(err, ErrChecksum))
	require.False(t, errors.Is(err, ErrCorrupt))
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	require.Equal(t, "chunk 3: chunk header: unexpected EOF", err.Error())

	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, ErrKindChecksum, kind)

	_, ok = KindOf(io.EOF)
	require.False(t, ok)
}

func TestError_NilAndKindString(t *testing.T) {
	var e *Error
	require.Equal(t, "<nil>", e.Error())
	require.Equal(t, "write", ErrKindWrite.String())
	require.Equal(t, "ErrKind(42)", ErrKind(42).String())
	require.Equal(t, "truncated input", ErrTruncated.Error())
}

func TestLimits(t *testing.T) {
	var none Limits
	require.False(t, none.ChunksReached(1000))
	require.False(t, none.RecordsReached(1000))

	l := Limits{MaxChunks: 2, MaxRecords: 5}
	require.False(t, l.ChunksReached(1))
	require.True(t, l.ChunksReached(2))
	require.True(t, l.RecordsReached(5))
}
