package cursor

import "errors"

// ErrBlockReinit indicates Finish was called twice on the same Block.
var ErrBlockReinit = errors.New("cursor: block finished twice")

// Block tracks a structure that starts at a known offset and declares a
// header length. Fields are read first; Finish then skips whatever part of
// the declared header was not consumed so the body starts at a fixed offset.
type Block struct {
	r     *Reader
	start int
	done  bool
}

// Begin starts a Block at r's current position.
func Begin(r *Reader) *Block {
	return &Block{r: r, start: r.pos}
}

// Start returns the absolute offset the block began at.
func (b *Block) Start() int { return b.start }

// Consumed returns the bytes read since the block began.
func (b *Block) Consumed() int { return b.r.pos - b.start }

// Offset returns the absolute offset of the block's cursor.
func (b *Block) Offset() int { return b.start + b.Consumed() }

// Finish skips to headerLen bytes past the start. It is a no-op when that
// point was already reached or passed.
func (b *Block) Finish(headerLen int) error {
	if b.done {
		return ErrBlockReinit
	}
	b.done = true
	if skip := headerLen - b.Consumed(); skip > 0 {
		return b.r.Skip(skip)
	}
	return nil
}
