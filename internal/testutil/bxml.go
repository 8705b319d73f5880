// Package testutil assembles synthetic EVTX files, chunks, records and binary
// XML fragments with valid checksums so decoder tests need no fixtures.
package testutil

import (
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/evtxkit/internal/format"
)

// Token bytes used by the builder.
const (
	TokEOS          = 0x00
	TokOpenStart    = 0x01
	TokCloseStart   = 0x02
	TokCloseEmpty   = 0x03
	TokCloseElement = 0x04
	TokValue        = 0x05
	TokAttribute    = 0x06
	TokCDATA        = 0x07
	TokEntityRef    = 0x09
	TokPITarget     = 0x0A
	TokPIData       = 0x0B
	TokTemplate     = 0x0C
	TokNormalSubst  = 0x0D
	TokCondSubst    = 0x0E
	TokStreamStart  = 0x0F

	// FlagMore is the 0x4 flag bit in the token's high nibble.
	FlagMore = 0x40
)

// BXML appends binary XML to a buffer that will be placed at a known
// chunk-relative offset. Offsets written into tokens (inline names and
// templates) are computed from that base.
type BXML struct {
	b    []byte
	base int
}

// NewBXML returns a builder whose first byte will live at chunk offset base.
func NewBXML(base int) *BXML {
	return &BXML{base: base}
}

// Bytes returns the assembled fragment.
func (x *BXML) Bytes() []byte { return x.b }

// Offset returns the chunk-relative offset of the next byte to be written.
func (x *BXML) Offset() int { return x.base + len(x.b) }

// U8 appends a byte.
func (x *BXML) U8(v uint8) *BXML {
	x.b = append(x.b, v)
	return x
}

// U16 appends a little-endian uint16.
func (x *BXML) U16(v uint16) *BXML {
	x.b = append(x.b, byte(v), byte(v>>8))
	return x
}

// U32 appends a little-endian uint32.
func (x *BXML) U32(v uint32) *BXML {
	x.b = append(x.b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	return x
}

// U64 appends a little-endian uint64.
func (x *BXML) U64(v uint64) *BXML {
	return x.U32(uint32(v)).U32(uint32(v >> 32))
}

// Raw appends b verbatim.
func (x *BXML) Raw(b []byte) *BXML {
	x.b = append(x.b, b...)
	return x
}

// WChars appends s as UTF-16LE without a length prefix or terminator.
func (x *BXML) WChars(s string) *BXML {
	return x.Raw(UTF16(s))
}

// StreamStart appends a fragment header (version 1.1).
func (x *BXML) StreamStart() *BXML {
	return x.U8(TokStreamStart).U8(1).U8(1).U8(0)
}

// EOS appends an end-of-stream token.
func (x *BXML) EOS() *BXML { return x.U8(TokEOS) }

// NameString appends a dictionary name entry and returns its offset.
func (x *BXML) NameString(next uint32, s string) uint32 {
	off := uint32(x.Offset())
	u := UTF16(s)
	x.U32(next).U16(0).U16(uint16(len(u) / 2)).Raw(u).U16(0)
	return off
}

// OpenElement appends an open-start-element token with an inline name.
func (x *BXML) OpenElement(name string, hasAttrs bool) *BXML {
	tok := byte(TokOpenStart)
	if hasAttrs {
		tok |= FlagMore
	}
	x.U8(tok).U16(0xFFFF).U32(0)
	x.U32(uint32(x.Offset() + format.DWORDSize))
	x.NameString(0, name)
	if hasAttrs {
		x.U32(0)
	}
	return x
}

// OpenElementRef appends an open-start-element token naming an existing
// name string entry.
func (x *BXML) OpenElementRef(nameOff uint32, hasAttrs bool) *BXML {
	tok := byte(TokOpenStart)
	if hasAttrs {
		tok |= FlagMore
	}
	x.U8(tok).U16(0xFFFF).U32(0).U32(nameOff)
	if hasAttrs {
		x.U32(0)
	}
	return x
}

// CloseStart appends a close-start-element token.
func (x *BXML) CloseStart() *BXML { return x.U8(TokCloseStart) }

// CloseEmpty appends a close-empty-element token.
func (x *BXML) CloseEmpty() *BXML { return x.U8(TokCloseEmpty) }

// CloseElement appends a close-element token.
func (x *BXML) CloseElement() *BXML { return x.U8(TokCloseElement) }

// Attribute appends an attribute token with an inline name. Its value must
// follow.
func (x *BXML) Attribute(name string) *BXML {
	x.U8(TokAttribute)
	x.U32(uint32(x.Offset() + format.DWORDSize))
	x.NameString(0, name)
	return x
}

// AttributeRef appends an attribute token naming an existing entry.
func (x *BXML) AttributeRef(nameOff uint32) *BXML {
	return x.U8(TokAttribute).U32(nameOff)
}

// TextValue appends a value token holding a UTF-16 string.
func (x *BXML) TextValue(s string) *BXML {
	u := UTF16(s)
	return x.U8(TokValue).U8(0x01).U16(uint16(len(u) / 2)).Raw(u)
}

// Subst appends a normal or conditional substitution token.
func (x *BXML) Subst(index uint16, valueType byte, conditional bool) *BXML {
	tok := byte(TokNormalSubst)
	if conditional {
		tok = TokCondSubst
	}
	return x.U8(tok).U16(index).U8(valueType)
}

// CDATA appends a CDATA section.
func (x *BXML) CDATA(s string) *BXML {
	u := UTF16(s)
	return x.U8(TokCDATA).U16(uint16(len(u) / 2)).Raw(u)
}

// EntityRef appends an entity reference with an inline name.
func (x *BXML) EntityRef(name string) *BXML {
	x.U8(TokEntityRef)
	x.U32(uint32(x.Offset() + format.DWORDSize))
	x.NameString(0, name)
	return x
}

// PI appends a processing instruction target and its data.
func (x *BXML) PI(target, data string) *BXML {
	x.U8(TokPITarget)
	x.U32(uint32(x.Offset() + format.DWORDSize))
	x.NameString(0, target)
	u := UTF16(data)
	return x.U8(TokPIData).U16(uint16(len(u) / 2)).Raw(u)
}

// TemplateInstance appends a template instance whose definition follows
// inline. body writes the template's children, which should end with EOS.
// It returns the definition's offset.
func (x *BXML) TemplateInstance(id uint32, body func(*BXML)) uint32 {
	x.U8(TokTemplate).U8(0x01).U32(id)
	off := uint32(x.Offset() + format.DWORDSize)
	x.U32(off)
	x.Template(0, id, body)
	return off
}

// TemplateInstanceRef appends a template instance referring to an earlier
// definition.
func (x *BXML) TemplateInstanceRef(id, off uint32) *BXML {
	return x.U8(TokTemplate).U8(0x01).U32(id).U32(off)
}

// Template appends a template definition at the current offset.
func (x *BXML) Template(next, id uint32, body func(*BXML)) {
	x.U32(next).U32(id).Raw([]byte("evtxkit-tpl!")) // 12 remaining GUID bytes
	lenAt := len(x.b)
	x.U32(0)
	start := len(x.b)
	if body != nil {
		body(x)
	}
	format.PutU32(x.b, lenAt, uint32(len(x.b)-start))
}

// Sub is one substitution slot.
type Sub struct {
	Type byte
	Data []byte
}

// Substitutions appends the substitution array that follows a root's
// end-of-stream.
func (x *BXML) Substitutions(subs ...Sub) *BXML {
	x.U32(uint32(len(subs)))
	for _, s := range subs {
		x.U16(uint16(len(s.Data))).U8(s.Type).U8(0)
	}
	for _, s := range subs {
		x.Raw(s.Data)
	}
	return x
}

// UTF16 encodes s as UTF-16LE.
func UTF16(s string) []byte {
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return b
}
