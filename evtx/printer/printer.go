// Package printer renders decoded event records as XML.
package printer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/evtxkit/evtx"
	"github.com/joshuapare/evtxkit/evtx/binxml"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatXML wraps every record in a single <Events> document.
	FormatXML Format = "xml"

	// FormatJSON writes one JSON object per record, one per line, with the
	// record's XML as a string field.
	FormatJSON Format = "json"
)

// ErrNoTree is returned for a record whose body failed to decode.
var ErrNoTree = errors.New("printer: record has no decoded tree")

// Declaration is the XML declaration written by Begin when requested.
const Declaration = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>`

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (xml, json).
	// Default: FormatXML
	Format Format

	// Declaration writes the XML declaration before <Events>.
	// Default: false
	Declaration bool

	// Indent is repeated once per nesting level before element tags.
	// Empty keeps the output on one line.
	// Default: ""
	Indent string

	// Partial writes what was rendered before a decode failure instead of
	// dropping the record. The error is still returned.
	// Default: false
	Partial bool

	// MaxNodes bounds the node visits spent rendering one record, counting
	// every expansion of a shared template.
	// Default: DefaultMaxNodes
	MaxNodes int

	// MaxOutput bounds the rendered size of one record in bytes.
	// Default: DefaultMaxOutput
	MaxOutput int
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:      FormatXML,
		Declaration: true,
	}
}

// Printer streams records to a writer. Decode failures and write failures
// are reported differently: the latter always carry types.ErrKindWrite.
type Printer struct {
	opts Options
	w    *bufio.Writer
	buf  bytes.Buffer
}

// New creates a new Printer writing to w.
//
// Example:
//
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.Begin()
//	for rec, err := range chunk.Records() { ... p.WriteRecord(rec) ... }
//	p.End()
func New(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatXML
	}
	return &Printer{opts: opts, w: bufio.NewWriter(w)}
}

// Begin writes the document prologue.
func (p *Printer) Begin() error {
	if p.opts.Format != FormatXML {
		return nil
	}
	if p.opts.Declaration {
		if err := p.write([]byte(Declaration + "\n")); err != nil {
			return err
		}
	}
	return p.write([]byte("<Events>"))
}

// WriteRecord renders one record. Unless Options.Partial is set, nothing
// is written when rendering fails.
func (p *Printer) WriteRecord(rec *evtx.Record) error {
	if rec.Root == binxml.InvalidNode {
		return fmt.Errorf("chunk %d record %d: %w", rec.Chunk.Index, rec.Number, ErrNoTree)
	}
	p.buf.Reset()
	depth := 0
	if p.opts.Format == FormatXML {
		depth = 1
	}
	lim := newBudget(p.opts.MaxNodes, p.opts.MaxOutput)
	r := newRenderer(rec.Arena(), &p.buf, p.opts.Indent, p.opts.Format != FormatXML, lim)
	if err := r.root(rec.Root, depth); err != nil {
		err = fmt.Errorf("chunk %d record %d: %w", rec.Chunk.Index, rec.Number, err)
		if p.opts.Partial && p.opts.Format == FormatXML {
			if werr := p.write(p.buf.Bytes()); werr != nil {
				return werr
			}
		}
		return err
	}

	switch p.opts.Format {
	case FormatJSON:
		line, err := jsonRecord(rec, p.buf.String())
		if err != nil {
			return err
		}
		return p.write(line)
	default:
		return p.write(p.buf.Bytes())
	}
}

// End closes the document and flushes buffered output.
func (p *Printer) End() error {
	if p.opts.Format == FormatXML {
		closing := "</Events>"
		if p.opts.Indent != "" {
			closing = "\n</Events>\n"
		}
		if err := p.write([]byte(closing)); err != nil {
			return err
		}
	}
	if err := p.w.Flush(); err != nil {
		return &types.Error{Kind: types.ErrKindWrite, Msg: "flush output", Err: err}
	}
	return nil
}

func (p *Printer) write(b []byte) error {
	if _, err := p.w.Write(b); err != nil {
		return &types.Error{Kind: types.ErrKindWrite, Msg: "write output", Err: err}
	}
	return nil
}

// RenderRoot renders the tree at root without any document wrapper, under
// the default render budget. On a decode failure it returns what was
// rendered before the failure along with the error.
func RenderRoot(a *binxml.Arena, root binxml.NodeID, indent string) (string, error) {
	var b bytes.Buffer
	err := newRenderer(a, &b, indent, true, newBudget(0, 0)).root(root, 0)
	return b.String(), err
}
