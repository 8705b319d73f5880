package evtx

import (
	"errors"
	"io"

	core "github.com/joshuapare/evtxkit/evtx"
	"github.com/joshuapare/evtxkit/evtx/printer"
	"github.com/joshuapare/evtxkit/internal/logger"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// RenderOptions controls Render.
type RenderOptions struct {
	Printer printer.Options
	Open    types.OpenOptions
}

// DefaultRenderOptions returns the options Render uses for a nil argument.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{Printer: printer.DefaultOptions()}
}

// Render writes every decodable record of the file at path to w. Records
// and chunks that fail are logged, counted in the returned Stats and left
// out of the output.
func Render(path string, w io.Writer, opts *RenderOptions) (types.Stats, error) {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	l, err := Open(path, &opts.Open)
	if err != nil {
		return types.Stats{}, err
	}
	defer l.Close()
	return render(l.f, w, opts)
}

// RenderReader is Render over an arbitrary stream.
func RenderReader(r io.Reader, w io.Writer, opts *RenderOptions) (types.Stats, error) {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	f, err := core.NewFile(r, opts.Open)
	if err != nil {
		return types.Stats{}, err
	}
	return render(f, w, opts)
}

func render(f *core.File, w io.Writer, opts *RenderOptions) (types.Stats, error) {
	log := logger.Or(opts.Open.Logger)
	p := printer.New(w, opts.Printer)
	var st types.Stats
	if err := p.Begin(); err != nil {
		return st, err
	}

	for c, err := range f.Chunks() {
		var bad *core.MalformedChunkError
		if errors.As(err, &bad) {
			log.Warn("skipping malformed chunk", "chunk", bad.Index, "offset", bad.Offset, "err", bad.Err)
			st.MalformedChunks++
			bad.Discard()
			continue
		}
		if err != nil {
			return st, err
		}
		st.Chunks++
		for rec, err := range c.Records() {
			if err != nil {
				log.Warn("skipping record", "err", err)
				st.FailedRecords++
				continue
			}
			if err := p.WriteRecord(rec); err != nil {
				if kind, _ := types.KindOf(err); kind == types.ErrKindWrite {
					return st, err
				}
				log.Warn("skipping record", "err", err)
				st.FailedRecords++
				continue
			}
			st.Records++
		}
		st.Templates += c.Arena().TemplateCount()
		st.NameStrings += c.Arena().NameStringCount()
	}
	return st, p.End()
}
