package evtx

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/joshuapare/evtxkit/evtx/binxml"
	"github.com/joshuapare/evtxkit/internal/cursor"
	"github.com/joshuapare/evtxkit/internal/format"
	"github.com/joshuapare/evtxkit/internal/logger"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// Chunk is one validated 64KiB chunk. Its arena holds the name string and
// template dictionaries, which every record of the chunk refers to, so the
// chunk must outlive the records read from it.
type Chunk struct {
	Index  int
	Offset int64
	Header format.ChunkHeader

	data  []byte
	arena *binxml.Arena
	opts  types.OpenOptions
	log   *slog.Logger
	file  *File

	next  int    // offset of the next record
	last  uint64 // number of the last record returned
	count int
	done  bool
}

// NewChunk validates data as chunk index of a file: signature, header
// checksum, dictionaries, then the record area checksum. off is the chunk's
// absolute offset and is only used for reporting.
func NewChunk(index int, off int64, data []byte, opts types.OpenOptions) (*Chunk, error) {
	log := logger.Or(opts.Logger).With("chunk", index)

	h, err := format.ParseChunkHeader(data)
	if err != nil {
		return nil, classify("chunk header", err)
	}

	arena := binxml.NewArena(data, log)
	for i := 0; i < format.ChunkStringSlots; i++ {
		if head := format.StringSlot(data, i); head != 0 {
			if err := arena.LoadNameChain(head); err != nil {
				return nil, classify(fmt.Sprintf("name string slot %d", i), err)
			}
		}
	}
	for i := 0; i < format.ChunkTemplateSlots; i++ {
		if head := format.TemplateSlot(data, i); head != 0 {
			if err := arena.LoadTemplateChain(head); err != nil {
				return nil, classify(fmt.Sprintf("template slot %d", i), err)
			}
		}
	}

	if err := format.VerifyChunkData(data, h); err != nil {
		return nil, classify("chunk data", err)
	}

	return &Chunk{
		Index:  index,
		Offset: off,
		Header: h,
		data:   data,
		arena:  arena,
		opts:   opts,
		log:    log,
		next:   format.ChunkFirstRecordOffset,
	}, nil
}

// Info returns the chunk header as public metadata.
func (c *Chunk) Info() types.ChunkInfo {
	return types.ChunkInfo{
		Index:            c.Index,
		Offset:           c.Offset,
		FirstRecord:      c.Header.FileFirstRecordNumber,
		LastRecord:       c.Header.FileLastRecordNumber,
		LastRecordOffset: c.Header.LastRecordOffset,
		NextRecordOffset: c.Header.NextRecordOffset,
		Flags:            c.Header.Flags,
	}
}

// Arena returns the node arena shared by the chunk's records.
func (c *Chunk) Arena() *binxml.Arena { return c.arena }

// Data returns the raw chunk bytes.
func (c *Chunk) Data() []byte { return c.data }

// NameString returns the dictionary name string at off.
func (c *Chunk) NameString(off uint32) (string, bool) {
	id, ok := c.arena.NameString(off)
	if !ok {
		return "", false
	}
	return c.arena.Node(id).Text, true
}

// Template returns the dictionary template at off.
func (c *Chunk) Template(off uint32) (binxml.NodeID, bool) {
	return c.arena.Template(off)
}

// Next returns the next record or io.EOF. Iteration ends after the record
// numbered FileLastRecordNumber, at the free space offset, or after a record
// fails to decode (unless ResyncRecords is set).
func (c *Chunk) Next() (*Record, error) {
	if c.done || c.next >= int(c.Header.NextRecordOffset) {
		return nil, io.EOF
	}
	if c.count > 0 && c.last == c.Header.FileLastRecordNumber {
		return nil, io.EOF
	}
	if c.file != nil && c.file.opts.Limits.RecordsReached(c.file.records) {
		return nil, io.EOF
	}

	start := c.next
	rec, size, err := c.parseRecord(start)
	if err != nil {
		rerr := &RecordError{Chunk: c.Index, Offset: start, Err: err}
		if rec != nil {
			rerr.Number = rec.Number
		}
		if c.opts.ResyncRecords && size >= format.RecordMinSize {
			c.log.Warn("skipping undecodable record", "offset", start, "size", size, "err", err)
			c.next = start + size
		} else {
			c.done = true
		}
		return nil, rerr
	}

	c.next = start + int(rec.Size)
	c.last = rec.Number
	c.count++
	if c.file != nil {
		c.file.records++
	}
	return rec, nil
}

// Records adapts Next to a range-over-func sequence.
func (c *Chunk) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := c.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

// parseRecord decodes the record at start. It returns the declared size
// whenever the header was readable, even on failure, and a partial Record
// carrying the header fields.
func (c *Chunk) parseRecord(start int) (*Record, int, error) {
	r := c.arena.Reader(start)
	hdr, err := r.PeekBytes(format.RecordHeaderSize)
	if err != nil {
		return nil, 0, classify("record header", err)
	}
	h, err := format.ParseRecordHeader(hdr)
	if err != nil {
		return nil, 0, classify("record header", err)
	}
	blk := cursor.Begin(r)
	if err := blk.Finish(format.RecordHeaderSize); err != nil {
		return nil, 0, classify("record header", err)
	}

	size := int(h.Size)
	rec := &Record{
		Chunk:   c,
		Number:  h.Number,
		Written: format.FiletimeToTime(h.Written),
		Offset:  start,
		Size:    h.Size,
		Root:    binxml.InvalidNode,
	}

	bodyLen := size - format.RecordHeaderSize - format.DWORDSize
	root, err := c.arena.ParseRoot(r.Bounded(bodyLen))
	if err != nil {
		return rec, size, classify("record body", err)
	}
	if err := r.Skip(bodyLen); err != nil {
		return rec, size, classify("record trailer", err)
	}
	echo, err := r.ReadU32()
	if err != nil {
		return rec, size, classify("record trailer", err)
	}
	if echo != h.Size {
		return rec, size, classify("record trailer", fmt.Errorf("declared %d, trailer %d: %w", h.Size, echo, ErrSizeEcho))
	}
	rec.Root = root
	return rec, size, nil
}

// Record is one decoded event record.
type Record struct {
	Chunk   *Chunk
	Number  uint64
	Written time.Time
	Offset  int // chunk-relative
	Size    uint32
	Root    binxml.NodeID
}

// Arena returns the arena holding the record's tree.
func (r *Record) Arena() *binxml.Arena { return r.Chunk.arena }

// Info returns the record header as public metadata.
func (r *Record) Info() types.RecordInfo {
	return types.RecordInfo{
		Chunk:   r.Chunk.Index,
		Number:  r.Number,
		Written: r.Written,
		Offset:  r.Offset,
		Size:    r.Size,
	}
}
