package printer

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/joshuapare/evtxkit/evtx/binxml"
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Render budget applied when Options leaves it unset. A nested fragment
// substituted twice into a shared template doubles the output per level, so
// parse depth alone does not bound rendering.
const (
	DefaultMaxNodes  = 1 << 20
	DefaultMaxOutput = 16 << 20
)

// budget is shared by a renderer and the renderers it spawns for nested
// attribute values.
type budget struct {
	nodes     int
	maxNodes  int
	maxOutput int
}

func newBudget(maxNodes, maxOutput int) *budget {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &budget{maxNodes: maxNodes, maxOutput: maxOutput}
}

// renderer walks one tree. Substitutions resolve against the nearest
// enclosing root, which is passed down explicitly because templates are
// shared between records.
type renderer struct {
	a        *binxml.Arena
	b        *bytes.Buffer
	indent   string
	trimLead bool // no newline before the first element
	elements int

	lim   *budget
	outer int // bytes already produced by enclosing renderers
}

func newRenderer(a *binxml.Arena, b *bytes.Buffer, indent string, trimLead bool, lim *budget) *renderer {
	return &renderer{a: a, b: b, indent: indent, trimLead: trimLead, lim: lim}
}

// spend charges one node visit and fails once either limit is exceeded.
func (r *renderer) spend(id binxml.NodeID) error {
	r.lim.nodes++
	if r.lim.nodes > r.lim.maxNodes || r.outer+r.b.Len() > r.lim.maxOutput {
		n := r.a.Node(id)
		return &binxml.DecodeError{Offset: n.Offset, Kind: n.Kind, Err: binxml.ErrTooLarge}
	}
	return nil
}

func (r *renderer) root(id binxml.NodeID, depth int) error {
	return r.children(r.a.Node(id).Children, id, depth)
}

func (r *renderer) children(ids []binxml.NodeID, root binxml.NodeID, depth int) error {
	for i := 0; i < len(ids); i++ {
		n := r.a.Node(ids[i])
		if n.Kind == binxml.KindPITarget {
			target, data := r.a.NameOf(ids[i]), ""
			if i+1 < len(ids) && r.a.Node(ids[i+1]).Kind == binxml.KindPIData {
				data = " " + r.a.Node(ids[i+1]).Text
				i++
			}
			r.b.WriteString("<?" + target + data + "?>")
			continue
		}
		if err := r.node(ids[i], root, depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) node(id, root binxml.NodeID, depth int) error {
	if err := r.spend(id); err != nil {
		return err
	}
	n := r.a.Node(id)
	switch n.Kind {
	case binxml.KindOpenStartElement:
		return r.element(id, root, depth)
	case binxml.KindValue:
		return r.content(n.Value, depth)
	case binxml.KindCDATA:
		r.b.WriteString("<![CDATA[" + n.Text + "]]>")
	case binxml.KindEntityReference:
		r.b.WriteString("&" + r.a.NameOf(id) + ";")
	case binxml.KindPIData:
		r.b.WriteString(n.Text + "?>")
	case binxml.KindTemplateInstance:
		return r.children(r.a.Node(n.Template).Children, root, depth)
	case binxml.KindNormalSubstitution, binxml.KindConditionalSubstitution:
		v, err := r.a.Substitution(root, n.Index)
		if err != nil {
			return err
		}
		if v.IsNull() {
			return nil
		}
		return r.content(v, depth)
	}
	return nil
}

func (r *renderer) element(id, root binxml.NodeID, depth int) error {
	name := r.a.NameOf(id)
	r.newline(depth)
	r.b.WriteString("<" + name)

	kids := r.a.Node(id).Children
	for _, c := range kids {
		if r.a.Node(c).Kind != binxml.KindAttribute {
			continue
		}
		value, ok, err := r.attribute(c, root)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		r.b.WriteString(" " + r.a.NameOf(c) + `="`)
		_ = xml.EscapeText(r.b, []byte(value))
		r.b.WriteByte('"')
		if err := r.spend(c); err != nil {
			return err
		}
	}
	r.b.WriteByte('>')

	before := r.elements
	r.elements++
	var rest []binxml.NodeID
	for _, c := range kids {
		if r.a.Node(c).Kind != binxml.KindAttribute {
			rest = append(rest, c)
		}
	}
	if err := r.children(rest, root, depth+1); err != nil {
		return err
	}
	if r.elements > before+1 {
		r.newline(depth)
	}
	r.b.WriteString("</" + name + ">")
	return nil
}

// attribute resolves an attribute's value. ok is false when the attribute
// must be omitted because its conditional substitution is Null.
func (r *renderer) attribute(id, root binxml.NodeID) (string, bool, error) {
	kids := r.a.Node(id).Children
	if len(kids) == 0 {
		return "", true, nil
	}
	c := r.a.Node(kids[0])
	var v binxml.Value
	switch c.Kind {
	case binxml.KindValue:
		v = c.Value
	case binxml.KindNormalSubstitution, binxml.KindConditionalSubstitution:
		var err error
		if v, err = r.a.Substitution(root, c.Index); err != nil {
			return "", false, err
		}
		if c.Kind == binxml.KindConditionalSubstitution && v.IsNull() {
			return "", false, nil
		}
	default:
		return "", true, nil
	}
	if v.Type == binxml.TypeBinXML && v.Root != binxml.InvalidNode {
		var b bytes.Buffer
		nested := newRenderer(r.a, &b, "", true, r.lim)
		nested.outer = r.outer + r.b.Len()
		err := nested.root(v.Root, 0)
		return b.String(), err == nil, err
	}
	return v.Text, true, nil
}

func (r *renderer) content(v binxml.Value, depth int) error {
	switch v.Type {
	case binxml.TypeBinXML:
		if v.Root != binxml.InvalidNode {
			return r.root(v.Root, depth)
		}
	case binxml.TypeWStringArray:
		for _, s := range v.Strings {
			r.b.WriteString("<string>")
			r.b.WriteString(textEscaper.Replace(s))
			r.b.WriteString("</string>")
		}
	default:
		r.b.WriteString(textEscaper.Replace(v.Text))
	}
	return nil
}

func (r *renderer) newline(depth int) {
	if r.indent == "" || (r.trimLead && r.b.Len() == 0) {
		return
	}
	r.b.WriteByte('\n')
	r.b.WriteString(strings.Repeat(r.indent, depth))
}
