// Package mmfile maps event log files into memory read-only.
package mmfile

import (
	"bytes"
	"sync"
)

// Mapping is a read-only view of a whole file. The bytes stay valid until
// Close.
type Mapping struct {
	data  []byte
	close func() error
	once  sync.Once
	err   error
}

// Bytes returns the file contents.
func (m *Mapping) Bytes() []byte { return m.data }

// Len returns the file size.
func (m *Mapping) Len() int { return len(m.data) }

// Reader returns a fresh reader over the contents.
func (m *Mapping) Reader() *bytes.Reader { return bytes.NewReader(m.data) }

// Close releases the mapping. Later calls return the first result.
func (m *Mapping) Close() error {
	m.once.Do(func() {
		if m.close != nil {
			m.err = m.close()
		}
		m.data = nil
	})
	return m.err
}
