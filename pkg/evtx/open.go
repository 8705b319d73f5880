package evtx

import (
	"fmt"

	core "github.com/joshuapare/evtxkit/evtx"
	"github.com/joshuapare/evtxkit/internal/mmfile"
	"github.com/joshuapare/evtxkit/pkg/types"
)

// Log is an open, memory-mapped event log.
type Log struct {
	m *mmfile.Mapping
	f *core.File
}

// Open maps the file at path and validates its header. A nil opts decodes
// strictly and logs nothing.
func Open(path string, opts *types.OpenOptions) (*Log, error) {
	m, err := mmfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	f, err := core.NewFile(m.Reader(), optionsOrDefault(opts))
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return &Log{m: m, f: f}, nil
}

// Info returns the file header.
func (l *Log) Info() types.FileInfo { return l.f.Header() }

// File returns the chunk iterator. Chunks and records obtained from it are
// only valid until Close.
func (l *Log) File() *core.File { return l.f }

// Bytes returns the mapped file contents.
func (l *Log) Bytes() []byte { return l.m.Bytes() }

// Close unmaps the file.
func (l *Log) Close() error { return l.m.Close() }

// GetFileInfo returns the header of the file at path.
func GetFileInfo(path string) (types.FileInfo, error) {
	l, err := Open(path, nil)
	if err != nil {
		return types.FileInfo{}, err
	}
	defer l.Close()
	return l.Info(), nil
}

func optionsOrDefault(opts *types.OpenOptions) types.OpenOptions {
	if opts == nil {
		return types.OpenOptions{}
	}
	return *opts
}
