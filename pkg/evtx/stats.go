package evtx

import (
	"errors"
	"io"

	core "github.com/joshuapare/evtxkit/evtx"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// ChunkStatus describes one chunk of a file.
type ChunkStatus struct {
	types.ChunkInfo
	Records       int   `json:"records"`
	FailedRecords int   `json:"failed_records"`
	Err           error `json:"-"` // set when the chunk failed validation
}

// Stats decodes every record of the file at path and counts the outcome.
func Stats(path string, opts *types.OpenOptions) (types.Stats, error) {
	l, err := Open(path, opts)
	if err != nil {
		return types.Stats{}, err
	}
	defer l.Close()
	return collectStats(l.f)
}

// ReadStats is Stats over an arbitrary stream.
func ReadStats(r io.Reader, opts *types.OpenOptions) (types.Stats, error) {
	f, err := core.NewFile(r, optionsOrDefault(opts))
	if err != nil {
		return types.Stats{}, err
	}
	return collectStats(f)
}

func collectStats(f *core.File) (types.Stats, error) {
	var st types.Stats
	err := walkChunks(f, func(cs ChunkStatus, c *core.Chunk) {
		if cs.Err != nil {
			st.MalformedChunks++
			return
		}
		st.Chunks++
		st.Records += cs.Records
		st.FailedRecords += cs.FailedRecords
		st.Templates += c.Arena().TemplateCount()
		st.NameStrings += c.Arena().NameStringCount()
	})
	return st, err
}

// Chunks reports the status of every chunk of the file at path.
func Chunks(path string, opts *types.OpenOptions) ([]ChunkStatus, error) {
	l, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer l.Close()
	return collectChunks(l.f)
}

// ReadChunks is Chunks over an arbitrary stream.
func ReadChunks(r io.Reader, opts *types.OpenOptions) ([]ChunkStatus, error) {
	f, err := core.NewFile(r, optionsOrDefault(opts))
	if err != nil {
		return nil, err
	}
	return collectChunks(f)
}

func collectChunks(f *core.File) ([]ChunkStatus, error) {
	var out []ChunkStatus
	err := walkChunks(f, func(cs ChunkStatus, _ *core.Chunk) {
		out = append(out, cs)
	})
	return out, err
}

// walkChunks visits every chunk, decoding all records of the valid ones
// before calling fn. fn gets a nil chunk for malformed ones.
func walkChunks(f *core.File, fn func(ChunkStatus, *core.Chunk)) error {
	for {
		c, err := f.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var bad *core.MalformedChunkError
		if errors.As(err, &bad) {
			cs := ChunkStatus{Err: bad.Err}
			cs.Index = bad.Index
			cs.Offset = bad.Offset
			bad.Discard()
			fn(cs, nil)
			continue
		}
		if err != nil {
			return err
		}

		cs := ChunkStatus{ChunkInfo: c.Info()}
		for _, err := range c.Records() {
			if err != nil {
				cs.FailedRecords++
				continue
			}
			cs.Records++
		}
		fn(cs, c)
	}
}
