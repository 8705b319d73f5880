package route

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/joshuapare/evtxkit/pkg/types"
)

// Sink accepts output units. Put must not retain u.Data after returning.
type Sink interface {
	Put(ctx context.Context, u Unit) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, u Unit) error

// Put calls f.
func (f SinkFunc) Put(ctx context.Context, u Unit) error { return f(ctx, u) }

// DirSink writes each unit to a file named after it inside Dir, creating
// Dir on first use.
type DirSink struct {
	Dir string
}

// Put writes u to Dir.
func (d DirSink) Put(ctx context.Context, u Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return &types.Error{Kind: types.ErrKindWrite, Msg: "create output directory", Err: err}
	}
	path := filepath.Join(d.Dir, filepath.Base(u.Name))
	if err := os.WriteFile(path, u.Data, 0o644); err != nil {
		return &types.Error{Kind: types.ErrKindWrite, Msg: "write " + path, Err: err}
	}
	return nil
}

// MemorySink keeps copies of every unit it receives. It is safe for
// concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	units []Unit
}

// Put stores a copy of u.
func (m *MemorySink) Put(ctx context.Context, u Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.Data = slices.Clone(u.Data)
	m.mu.Lock()
	m.units = append(m.units, u)
	m.mu.Unlock()
	return nil
}

// Units returns the stored units in arrival order.
func (m *MemorySink) Units() []Unit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.units)
}

// Names returns the stored unit names in arrival order.
func (m *MemorySink) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.units))
	for i, u := range m.units {
		names[i] = u.Name
	}
	return names
}
