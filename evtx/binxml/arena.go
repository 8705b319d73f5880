package binxml

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshuapare/evtxkit/internal/buf"
	"github.com/joshuapare/evtxkit/internal/cursor"
	"github.com/joshuapare/evtxkit/internal/format"
)

// Arena owns every node decoded from one chunk together with the chunk's
// name string and template dictionaries. An Arena is not safe for concurrent
// use; it is mutated by whoever drives the chunk's record iteration.
type Arena struct {
	src       *cursor.Reader
	nodes     []Node
	names     map[uint32]NodeID
	templates map[uint32]NodeID
	log       *slog.Logger
}

// NewArena returns an empty arena over data, the bytes every dictionary
// offset is relative to. A nil logger discards warnings.
func NewArena(data []byte, log *slog.Logger) *Arena {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Arena{
		src:       cursor.New(data),
		nodes:     make([]Node, 0, 256),
		names:     make(map[uint32]NodeID),
		templates: make(map[uint32]NodeID),
		log:       log,
	}
}

// Reader returns a reader over the arena's bytes positioned at off. Roots
// must be parsed from readers obtained here so node offsets stay
// chunk-relative.
func (a *Arena) Reader(off int) *cursor.Reader { return a.src.At(off) }

// Node returns the node for id. The pointer is invalidated by further parsing.
func (a *Arena) Node(id NodeID) *Node { return &a.nodes[id] }

// Len returns the number of nodes in the arena.
func (a *Arena) Len() int { return len(a.nodes) }

// NameString returns the cached name string parsed at off.
func (a *Arena) NameString(off uint32) (NodeID, bool) {
	id, ok := a.names[off]
	return id, ok
}

// Template returns the cached template parsed at off.
func (a *Arena) Template(off uint32) (NodeID, bool) {
	id, ok := a.templates[off]
	return id, ok
}

// NameStringCount returns the number of cached name strings.
func (a *Arena) NameStringCount() int { return len(a.names) }

// TemplateCount returns the number of cached templates.
func (a *Arena) TemplateCount() int { return len(a.templates) }

// NameOf returns the resolved name of an element, attribute, entity
// reference or processing instruction target.
func (a *Arena) NameOf(id NodeID) string {
	n := a.nodes[id].Name
	if n == InvalidNode {
		return ""
	}
	return a.nodes[n].Text
}

// Substitution returns value index of the root's substitution array.
func (a *Arena) Substitution(root NodeID, index uint16) (Value, error) {
	subs := a.nodes[root].Substitutions
	if int(index) >= len(subs) {
		return Value{}, fmt.Errorf("index %d of %d: %w", index, len(subs), ErrSubstitutionIndex)
	}
	return subs[index], nil
}

func (a *Arena) alloc(n Node) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

func newNode(kind Kind, off int, parent NodeID) Node {
	return Node{
		Kind:     kind,
		Offset:   off,
		Parent:   parent,
		Name:     InvalidNode,
		Template: InvalidNode,
		Value:    Value{Root: InvalidNode},
	}
}

// getOrParse is the only place dictionaries are filled. The entry is inserted
// after parse returns, so a definition can never resolve to itself.
func (a *Arena) getOrParse(cache map[uint32]NodeID, off uint32, parse func(*cursor.Reader) (NodeID, error)) (NodeID, error) {
	if id, ok := cache[off]; ok {
		return id, nil
	}
	id, err := parse(a.src.At(int(off)))
	if err != nil {
		return InvalidNode, err
	}
	cache[off] = id
	return id, nil
}

func (a *Arena) parseNameString(r *cursor.Reader) (NodeID, error) {
	start := r.Offset()
	next, err := r.ReadU32()
	if err != nil {
		return InvalidNode, wrapNode(KindNameString, start, err)
	}
	hash, err := r.ReadU16()
	if err != nil {
		return InvalidNode, wrapNode(KindNameString, start, err)
	}
	chars, err := r.ReadU16()
	if err != nil {
		return InvalidNode, wrapNode(KindNameString, start, err)
	}
	s, err := r.ReadWString(int(chars))
	if err != nil {
		return InvalidNode, wrapNode(KindNameString, start, err)
	}
	if err := r.Skip(format.WORDSize); err != nil {
		return InvalidNode, wrapNode(KindNameString, start, err)
	}
	n := newNode(KindNameString, start, InvalidNode)
	n.Next = next
	n.Hash = hash
	n.Text = s
	n.Length = r.Offset() - start
	return a.alloc(n), nil
}

// LoadNameChain parses the name strings linked from one dictionary slot.
func (a *Arena) LoadNameChain(head uint32) error {
	seen := make(map[uint32]struct{})
	for off := head; off != 0; {
		if _, dup := seen[off]; dup {
			a.log.Warn("name string chain loops", "offset", off)
			return nil
		}
		seen[off] = struct{}{}
		id, err := a.getOrParse(a.names, off, a.parseNameString)
		if err != nil {
			return fmt.Errorf("name string chain at 0x%x: %w", head, err)
		}
		off = a.nodes[id].Next
	}
	return nil
}

// LoadTemplateChain parses the templates linked from one dictionary slot.
// Every definition must sit right after the template instance token that
// introduced it; an entry failing that check ends the chain with a warning.
func (a *Arena) LoadTemplateChain(head uint32) error {
	data := a.src.Data()
	seen := make(map[uint32]struct{})
	for off := head; off != 0; {
		if _, dup := seen[off]; dup {
			a.log.Warn("template chain loops", "offset", off)
			return nil
		}
		seen[off] = struct{}{}
		if !templateGuardOK(data, off) {
			a.log.Warn("template chain truncated: guard mismatch", "head", head, "offset", off)
			return nil
		}
		id, err := a.getOrParse(a.templates, off, func(r *cursor.Reader) (NodeID, error) {
			return a.parseTemplate(r, 0)
		})
		if err != nil {
			return fmt.Errorf("template chain at 0x%x: %w", head, err)
		}
		off = a.nodes[id].Next
	}
	return nil
}

func templateGuardOK(data []byte, off uint32) bool {
	o := int(off)
	if o < format.TemplateGuardDistance || !buf.Has(data, o, 1) {
		return false
	}
	if data[o-format.TemplateGuardDistance] != format.TemplateGuardToken {
		return false
	}
	return buf.U32LE(data[o-format.TemplateSelfPointerDistance:]) == off
}

// DebugString renders the subtree at id as a compact token listing.
func (a *Arena) DebugString(id NodeID) string {
	var sb strings.Builder
	a.debug(&sb, id, 0)
	return sb.String()
}

func (a *Arena) debug(sb *strings.Builder, id NodeID, depth int) {
	n := &a.nodes[id]
	sb.WriteString(n.Kind.String())
	switch n.Kind {
	case KindOpenStartElement, KindAttribute, KindEntityReference, KindPITarget:
		fmt.Fprintf(sb, "(%s)", a.NameOf(id))
	case KindValue:
		fmt.Fprintf(sb, "(%s:%s)", n.Value.Type, n.Value.Text)
	case KindNormalSubstitution, KindConditionalSubstitution:
		fmt.Fprintf(sb, "(#%d:%s)", n.Index, n.ValueType)
	case KindTemplateInstance:
		fmt.Fprintf(sb, "(0x%08x@0x%x)", n.TemplateID, a.nodes[n.Template].Offset)
	case KindCDATA, KindPIData, KindNameString:
		fmt.Fprintf(sb, "(%q)", n.Text)
	case KindTemplate:
		fmt.Fprintf(sb, "(%s)", n.GUID)
	}
	if len(n.Children) > 0 && depth < MaxDepth {
		sb.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.debug(sb, c, depth+1)
		}
		sb.WriteByte(']')
	}
	if n.Kind == KindRoot && len(n.Substitutions) > 0 {
		sb.WriteString("{")
		for i, v := range n.Substitutions {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s:%s", v.Type, v.Text)
		}
		sb.WriteString("}")
	}
}
