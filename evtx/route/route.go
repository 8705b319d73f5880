// Package route splits an EVTX stream into rendered XML output units and
// hands them to sinks: successfully rendered units, units with decode
// failures, quarantined chunks and the untouched original input.
package route

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/evtxkit/evtx"
	"github.com/joshuapare/evtxkit/evtx/printer"
	"github.com/joshuapare/evtxkit/internal/logger"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// Granularity selects how many records go into one output unit.
type Granularity string

const (
	GranularityRecord Granularity = "record"
	GranularityChunk  Granularity = "chunk"
	GranularityFile   Granularity = "file"
)

// ParseGranularity validates s. An empty string selects GranularityChunk.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case "":
		return GranularityChunk, nil
	case GranularityRecord, GranularityChunk, GranularityFile:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q (want record, chunk or file)", s)
}

// MIME types attached to units.
const (
	MIMEXML    = "application/xml"
	MIMEBinary = "application/octet-stream"
)

// Unit is one named output.
type Unit struct {
	Name string
	MIME string
	Data []byte
}

// Sinks receives the routed units. A nil sink drops what it would receive.
type Sinks struct {
	Success  Sink
	Failure  Sink
	BadChunk Sink
	Original Sink
}

// Options controls routing.
type Options struct {
	// Granularity of XML units.
	// Default: GranularityChunk
	Granularity Granularity

	// Printer configures unit rendering. Format is always XML and partial
	// output is always kept for failure units.
	Printer printer.Options

	// Open is passed to evtx.NewFile.
	Open types.OpenOptions
}

// Summary counts what one Route call produced.
type Summary struct {
	Chunks        int `json:"chunks"`
	BadChunks     int `json:"bad_chunks"`
	Records       int `json:"records"`
	FailedRecords int `json:"failed_records"`
	Success       int `json:"success_units"`
	Failure       int `json:"failure_units"`
}

// Router routes EVTX streams to sinks.
type Router struct {
	sinks Sinks
	opts  Options
	log   *slog.Logger
}

// New creates a Router.
func New(sinks Sinks, opts Options) *Router {
	if opts.Granularity == "" {
		opts.Granularity = GranularityChunk
	}
	opts.Printer.Format = printer.FormatXML
	opts.Printer.Partial = true
	return &Router{sinks: sinks, opts: opts, log: logger.Or(opts.Open.Logger)}
}

// Route decodes src, typically a memory-mapped log, and emits its units.
// base names every unit. src itself is forwarded to the Original sink as
// {base}.evtx, even when decoding fails, so decoding holds no more than one
// chunk window of its own. Only file-level failures, sink failures and
// cancellation are returned; chunk and record failures are routed.
func (r *Router) Route(ctx context.Context, base string, src []byte) (Summary, error) {
	sum, err := r.route(ctx, base, bytes.NewReader(src))
	original := Unit{Name: base + ".evtx", MIME: MIMEBinary, Data: src}
	if perr := r.put(ctx, r.sinks.Original, original); perr != nil && err == nil {
		err = perr
	}
	return sum, err
}

func (r *Router) route(ctx context.Context, base string, src io.Reader) (Summary, error) {
	var sum Summary
	f, err := evtx.NewFile(src, r.opts.Open)
	if err != nil {
		return sum, err
	}

	var whole *unit
	if r.opts.Granularity == GranularityFile {
		if whole, err = r.newUnit(base); err != nil {
			return sum, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		c, err := f.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var bad *evtx.MalformedChunkError
		if errors.As(err, &bad) {
			r.log.Warn("quarantining chunk", "chunk", bad.Index, "offset", bad.Offset, "err", bad.Err)
			sum.BadChunks++
			u := Unit{Name: fmt.Sprintf("%s-chunk%d.evtx", base, bad.Index), MIME: MIMEBinary, Data: bad.Data}
			if err := r.put(ctx, r.sinks.BadChunk, u); err != nil {
				return sum, err
			}
			bad.Discard()
			continue
		}
		if err != nil {
			return sum, err
		}
		sum.Chunks++
		if err := r.routeChunk(ctx, base, c, whole, &sum); err != nil {
			return sum, err
		}
	}

	if whole != nil {
		return sum, r.emit(ctx, whole, &sum)
	}
	return sum, nil
}

func (r *Router) routeChunk(ctx context.Context, base string, c *evtx.Chunk, whole *unit, sum *Summary) error {
	target := whole
	if r.opts.Granularity == GranularityChunk {
		u, err := r.newUnit(fmt.Sprintf("%s-chunk%d", base, c.Index))
		if err != nil {
			return err
		}
		target = u
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var number uint64
		if rec != nil {
			number = rec.Number
		} else {
			var re *evtx.RecordError
			if errors.As(err, &re) {
				number = re.Number
			}
		}
		if r.opts.Granularity == GranularityRecord {
			u, uerr := r.newUnit(fmt.Sprintf("%s-chunk%d-record%d", base, c.Index, number))
			if uerr != nil {
				return uerr
			}
			target = u
		}

		if err != nil {
			r.log.Warn("record decode failed", "chunk", c.Index, "record", number, "err", err)
			sum.FailedRecords++
			target.failed = true
		} else if err := target.add(rec); err != nil {
			if kind, _ := types.KindOf(err); kind == types.ErrKindWrite {
				return err
			}
			r.log.Warn("record render failed", "chunk", c.Index, "record", number, "err", err)
			sum.FailedRecords++
		} else {
			sum.Records++
		}

		if r.opts.Granularity == GranularityRecord {
			if err := r.emit(ctx, target, sum); err != nil {
				return err
			}
		}
	}

	if r.opts.Granularity == GranularityChunk {
		return r.emit(ctx, target, sum)
	}
	return nil
}

// unit accumulates one XML document.
type unit struct {
	name   string
	buf    bytes.Buffer
	p      *printer.Printer
	failed bool
}

func (r *Router) newUnit(name string) (*unit, error) {
	u := &unit{name: name + ".xml"}
	u.p = printer.New(&u.buf, r.opts.Printer)
	if err := u.p.Begin(); err != nil {
		return nil, err
	}
	return u, nil
}

// add renders rec into the unit. A decode failure marks the unit failed and
// is returned so the caller can count it.
func (u *unit) add(rec *evtx.Record) error {
	err := u.p.WriteRecord(rec)
	if err != nil {
		if kind, _ := types.KindOf(err); kind != types.ErrKindWrite {
			u.failed = true
		}
	}
	return err
}

func (r *Router) emit(ctx context.Context, u *unit, sum *Summary) error {
	if err := u.p.End(); err != nil {
		return err
	}
	out := Unit{Name: u.name, MIME: MIMEXML, Data: u.buf.Bytes()}
	if u.failed {
		sum.Failure++
		return r.put(ctx, r.sinks.Failure, out)
	}
	sum.Success++
	return r.put(ctx, r.sinks.Success, out)
}

func (r *Router) put(ctx context.Context, s Sink, u Unit) error {
	if s == nil {
		return nil
	}
	if err := s.Put(ctx, u); err != nil {
		return fmt.Errorf("put %s: %w", u.Name, err)
	}
	return nil
}
