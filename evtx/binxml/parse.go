package binxml

import (
	"fmt"

	"github.com/joshuapare/evtxkit/internal/buf"
	"github.com/joshuapare/evtxkit/internal/cursor"
	"github.com/joshuapare/evtxkit/internal/format"
)

// ParseRoot parses one fragment at r: its children up to the end of stream,
// then the substitution array that follows. r must come from a.Reader and is
// left after the last substitution value.
func (a *Arena) ParseRoot(r *cursor.Reader) (NodeID, error) {
	return a.parseRoot(r, InvalidNode, 0)
}

func (a *Arena) parseRoot(r *cursor.Reader, parent NodeID, depth int) (NodeID, error) {
	start := r.Offset()
	if depth > MaxDepth {
		return InvalidNode, wrapNode(KindRoot, start, ErrTooDeep)
	}
	id := a.alloc(newNode(KindRoot, start, parent))
	if err := a.parseChildren(r, id, depth+1, -1, 0); err != nil {
		return InvalidNode, err
	}
	subs, err := a.parseSubstitutions(r, id, depth+1)
	if err != nil {
		return InvalidNode, wrapNode(KindRoot, start, err)
	}
	a.nodes[id].Substitutions = subs
	a.nodes[id].Length = r.Offset() - start
	return id, nil
}

type substitutionDescriptor struct {
	size int
	typ  ValueType
}

const substitutionDescriptorSize = 4

func (a *Arena) parseSubstitutions(r *cursor.Reader, root NodeID, depth int) ([]Value, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("substitution count: %w", err)
	}
	if _, err := buf.CheckListBounds(r.Len(), 0, int(count), substitutionDescriptorSize); err != nil {
		return nil, fmt.Errorf("%d substitution descriptors: %w (%v)", count, format.ErrTruncated, err)
	}
	descs := make([]substitutionDescriptor, count)
	for i := range descs {
		size, err := r.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("substitution descriptor %d size: %w", i, err)
		}
		typ, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("substitution descriptor %d type: %w", i, err)
		}
		if err := r.Skip(1); err != nil {
			return nil, fmt.Errorf("substitution descriptor %d: %w", i, err)
		}
		descs[i] = substitutionDescriptor{size: int(size), typ: ValueType(typ)}
	}
	values := make([]Value, len(descs))
	for i, d := range descs {
		v, err := a.parseValue(r, d.typ, d.size, root, depth)
		if err != nil {
			return nil, fmt.Errorf("substitution %d (%s, %d bytes): %w", i, d.typ, d.size, err)
		}
		values[i] = v
	}
	return values, nil
}

// parseChildren parses children of parent until one carries the end of
// stream, one has a kind in stop, or limit children were read (limit < 0
// means no limit).
func (a *Arena) parseChildren(r *cursor.Reader, parent NodeID, depth, limit int, stop endSet) error {
	for n := 0; limit < 0 || n < limit; n++ {
		child, err := a.parseNode(r, parent, depth)
		if err != nil {
			return err
		}
		a.nodes[parent].Children = append(a.nodes[parent].Children, child)
		c := &a.nodes[child]
		if c.EndOfStream {
			a.nodes[parent].EndOfStream = true
			return nil
		}
		if stop.has(c.Kind) {
			return nil
		}
	}
	return nil
}

func (a *Arena) parseNode(r *cursor.Reader, parent NodeID, depth int) (NodeID, error) {
	start := r.Offset()
	tok, err := r.ReadByte()
	if err != nil {
		return InvalidNode, wrapNode(a.nodes[parent].Kind, start, err)
	}
	kind := Kind(tok & 0x0F)
	flags := tok >> 4
	if depth > MaxDepth {
		return InvalidNode, wrapNode(kind, start, ErrTooDeep)
	}
	if kind == kindReserved {
		return InvalidNode, wrapNode(kind, start, fmt.Errorf("0x%02x: %w", tok, ErrBadToken))
	}
	if flags&^allowedFlags[kind] != 0 {
		return InvalidNode, wrapNode(kind, start, fmt.Errorf("0x%02x: %w", tok, ErrBadFlags))
	}

	n := newNode(kind, start, parent)
	n.Flags = flags
	id := a.alloc(n)

	switch kind {
	case KindEndOfStream:
		a.nodes[id].EndOfStream = true
	case KindCloseStartElement, KindCloseEmptyElement, KindCloseElement:
	case KindOpenStartElement:
		err = a.parseElement(r, id, depth)
	case KindValue:
		err = a.parseValueNode(r, id, depth)
	case KindAttribute:
		if err = a.parseNamed(r, id); err == nil {
			err = a.parseChildren(r, id, depth+1, 1, 0)
		}
	case KindEntityReference, KindPITarget:
		err = a.parseNamed(r, id)
	case KindCDATA, KindPIData:
		err = a.parseText(r, id)
	case KindTemplateInstance:
		err = a.parseTemplateInstance(r, id, depth)
	case KindNormalSubstitution, KindConditionalSubstitution:
		err = a.parseSubstitution(r, id)
	case KindStreamStart:
		err = a.parseStreamStart(r, id)
	}
	if err != nil {
		return InvalidNode, wrapNode(kind, start, err)
	}
	a.nodes[id].Length = r.Offset() - start
	return id, nil
}

func (a *Arena) parseElement(r *cursor.Reader, id NodeID, depth int) error {
	dep, err := r.ReadU16()
	if err != nil {
		return err
	}
	size, err := r.ReadU32()
	if err != nil {
		return err
	}
	a.nodes[id].Dependency = dep
	a.nodes[id].DataLength = size
	if err := a.parseNamed(r, id); err != nil {
		return err
	}
	if a.nodes[id].Flags&FlagMore != 0 {
		attrs, err := r.ReadU32()
		if err != nil {
			return err
		}
		a.nodes[id].AttrListSize = attrs
	}
	return a.parseChildren(r, id, depth+1, -1, elementEnds)
}

// parseNamed reads a name string offset and resolves it. An offset past the
// node itself is a definition: it is parsed (or found, when the dictionary
// scan got there first) and, when it sits at the cursor, skipped over. Any
// other offset must already be in the dictionary.
func (a *Arena) parseNamed(r *cursor.Reader, id NodeID) error {
	off, err := r.ReadU32()
	if err != nil {
		return err
	}
	if int64(off) <= int64(a.nodes[id].Offset) {
		name, ok := a.names[off]
		if !ok {
			return fmt.Errorf("name string at 0x%x: %w", off, ErrUnresolvedReference)
		}
		a.nodes[id].Name = name
		return nil
	}
	name, err := a.getOrParse(a.names, off, a.parseNameString)
	if err != nil {
		return err
	}
	if int(off) == r.Offset() {
		if err := r.Skip(a.nodes[name].Length); err != nil {
			return err
		}
	}
	a.nodes[id].Name = name
	a.nodes[id].Resident = true
	return nil
}

func (a *Arena) parseValueNode(r *cursor.Reader, id NodeID, depth int) error {
	typ, err := r.ReadByte()
	if err != nil {
		return err
	}
	v, err := a.parseValue(r, ValueType(typ), -1, id, depth+1)
	if err != nil {
		return err
	}
	a.nodes[id].Value = v
	return nil
}

func (a *Arena) parseText(r *cursor.Reader, id NodeID) error {
	chars, err := r.ReadU16()
	if err != nil {
		return err
	}
	s, err := r.ReadWString(int(chars))
	if err != nil {
		return err
	}
	a.nodes[id].Text = s
	return nil
}

func (a *Arena) parseSubstitution(r *cursor.Reader, id NodeID) error {
	index, err := r.ReadU16()
	if err != nil {
		return err
	}
	typ, err := r.ReadByte()
	if err != nil {
		return err
	}
	a.nodes[id].Index = index
	a.nodes[id].ValueType = ValueType(typ)
	return nil
}

func (a *Arena) parseStreamStart(r *cursor.Reader, id NodeID) error {
	b, err := r.ReadBytes(3)
	if err != nil {
		return err
	}
	if b[0] != 1 || b[1] != 1 {
		return fmt.Errorf("version %d.%d: %w", b[0], b[1], ErrStreamVersion)
	}
	a.nodes[id].Major = b[0]
	a.nodes[id].Minor = b[1]
	return nil
}

func (a *Arena) parseTemplateInstance(r *cursor.Reader, id NodeID, depth int) error {
	if err := r.Skip(1); err != nil {
		return err
	}
	tid, err := r.ReadU32()
	if err != nil {
		return err
	}
	off, err := r.ReadU32()
	if err != nil {
		return err
	}

	var tpl NodeID
	resident := int64(off) > int64(a.nodes[id].Offset)
	if resident {
		tpl, err = a.getOrParse(a.templates, off, func(tr *cursor.Reader) (NodeID, error) {
			return a.parseTemplate(tr, depth+1)
		})
		if err != nil {
			return err
		}
		if int(off) == r.Offset() {
			if err := r.Skip(a.nodes[tpl].Length); err != nil {
				return err
			}
		}
	} else {
		var ok bool
		if tpl, ok = a.templates[off]; !ok {
			return fmt.Errorf("template at 0x%x: %w", off, ErrUnresolvedReference)
		}
	}

	if got := a.nodes[tpl].TemplateID; got != tid {
		return fmt.Errorf("instance 0x%08x, definition 0x%08x: %w", tid, got, ErrTemplateID)
	}
	n := &a.nodes[id]
	n.TemplateID = tid
	n.Template = tpl
	n.Resident = resident
	n.EndOfStream = a.nodes[tpl].EndOfStream
	return nil
}

// parseTemplate parses a definition: next offset, GUID (whose first DWORD is
// the template id), data length, then a body of exactly data length bytes.
func (a *Arena) parseTemplate(r *cursor.Reader, depth int) (NodeID, error) {
	start := r.Offset()
	if depth > MaxDepth {
		return InvalidNode, wrapNode(KindTemplate, start, ErrTooDeep)
	}
	blk := cursor.Begin(r)
	next, err := r.ReadU32()
	if err != nil {
		return InvalidNode, wrapNode(KindTemplate, start, err)
	}
	r.Mark()
	tid, err := r.ReadU32()
	if err != nil {
		return InvalidNode, wrapNode(KindTemplate, start, err)
	}
	if err := r.Reset(); err != nil {
		return InvalidNode, wrapNode(KindTemplate, start, err)
	}
	guid, err := r.ReadGUID()
	if err != nil {
		return InvalidNode, wrapNode(KindTemplate, start, err)
	}
	dataLen, err := r.ReadU32()
	if err != nil {
		return InvalidNode, wrapNode(KindTemplate, start, err)
	}
	if int64(dataLen)+format.TemplateHeaderSize > format.MaxInt32 {
		return InvalidNode, wrapNode(KindTemplate, start, fmt.Errorf("%d: %w", dataLen, ErrTemplateLength))
	}
	if err := blk.Finish(format.TemplateHeaderSize); err != nil {
		return InvalidNode, wrapNode(KindTemplate, start, err)
	}

	n := newNode(KindTemplate, start, InvalidNode)
	n.Next = next
	n.TemplateID = tid
	n.GUID = guid
	n.DataLength = dataLen
	n.Length = format.TemplateHeaderSize + int(dataLen)
	id := a.alloc(n)

	body := r.Bounded(int(dataLen))
	if err := a.parseChildren(body, id, depth+1, -1, 0); err != nil {
		return InvalidNode, wrapNode(KindTemplate, start, err)
	}
	return id, nil
}
