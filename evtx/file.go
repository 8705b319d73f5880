package evtx

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/joshuapare/evtxkit/internal/cursor"
	"github.com/joshuapare/evtxkit/internal/format"
	"github.com/joshuapare/evtxkit/internal/logger"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// File walks the chunks of an EVTX stream in order.
type File struct {
	src    io.Reader
	header format.FileHeader
	opts   types.OpenOptions
	log    *slog.Logger

	next    int   // index of the next chunk
	records int   // records returned across all chunks
	err     error // sticky fatal error
}

// NewFile reads and validates the file header from r. Chunks are read lazily
// by Next, so r must stay readable until iteration ends.
func NewFile(r io.Reader, opts types.OpenOptions) (*File, error) {
	hdr, err := cursor.ReadFrom(r, format.FileHeaderSize)
	if err != nil {
		if errors.Is(err, format.ErrTruncated) {
			return nil, classify("file header", err)
		}
		return nil, fmt.Errorf("read file header: %w", err)
	}
	h, err := format.ParseFileHeader(hdr.Data())
	if err != nil {
		return nil, classify("file header", err)
	}
	return &File{
		src:    r,
		header: h,
		opts:   opts,
		log:    logger.Or(opts.Logger),
	}, nil
}

// Header returns the decoded file header.
func (f *File) Header() types.FileInfo {
	h := f.header
	return types.FileInfo{
		FirstChunk:      h.FirstChunk,
		LastChunk:       h.LastChunk,
		NextRecord:      h.NextRecord,
		MajorVersion:    h.MajorVersion,
		MinorVersion:    h.MinorVersion,
		HeaderBlockSize: h.HeaderBlockSize,
		ChunkCount:      int(h.ChunkCount),
		Flags:           h.Flags,
		Checksum:        h.Checksum,
	}
}

// Next returns the next chunk, or io.EOF once every declared chunk was
// visited. A chunk that fails validation yields a *MalformedChunkError and
// the following call moves on to the next chunk. Any other error is fatal
// and is returned again by every later call.
func (f *File) Next() (*Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.next >= int(f.header.ChunkCount) || f.opts.Limits.ChunksReached(f.next) {
		return nil, io.EOF
	}
	idx := f.next
	f.next++
	off := ChunkOffset(idx)

	window, err := cursor.ReadFrom(f.src, format.ChunkSize)
	if err != nil {
		if errors.Is(err, format.ErrTruncated) {
			err = classify(fmt.Sprintf("chunk %d at 0x%x", idx, off), err)
		} else {
			err = fmt.Errorf("read chunk %d: %w", idx, err)
		}
		f.err = err
		return nil, err
	}
	data := window.Data()

	c, err := NewChunk(idx, off, data, f.opts)
	if err != nil {
		f.log.Debug("malformed chunk", "chunk", idx, "offset", off, "err", err)
		return nil, &MalformedChunkError{Index: idx, Offset: off, Data: data, Err: err}
	}
	c.file = f
	return c, nil
}

// Chunks adapts Next to a range-over-func sequence. Malformed chunks are
// yielded as errors and iteration continues; a fatal error ends it.
func (f *File) Chunks() iter.Seq2[*Chunk, error] {
	return func(yield func(*Chunk, error) bool) {
		for {
			c, err := f.Next()
			if err == io.EOF {
				return
			}
			if !yield(c, err) {
				return
			}
			if err != nil && !IsMalformedChunk(err) {
				return
			}
		}
	}
}

// ChunkOffset returns the absolute offset of chunk i.
func ChunkOffset(i int) int64 {
	return int64(format.FileHeaderSize) + int64(i)*format.ChunkSize
}
