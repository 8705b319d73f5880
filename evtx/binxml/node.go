package binxml

// NodeID addresses a node inside an Arena.
type NodeID int32

// InvalidNode is the zero reference.
const InvalidNode NodeID = -1

// MaxDepth bounds element and nested fragment recursion.
const MaxDepth = 512

// Node is one decoded BXML token or dictionary entry. Which fields are set
// depends on Kind; the rest keep their zero value (references stay
// InvalidNode).
type Node struct {
	Kind  Kind
	Flags uint8
	// Offset is chunk-relative; Length counts every byte consumed from the
	// stream including inline dictionary entries.
	Offset int
	Length int

	Parent   NodeID
	Children []NodeID
	// EndOfStream is set on the end-of-stream token and on every node that
	// ended its child list because of one, including template instances
	// whose template did.
	EndOfStream bool

	// Name is the name string of an element, attribute, entity reference or
	// processing instruction target.
	Name NodeID
	// Resident is set when the name or template was defined by this node
	// rather than looked up.
	Resident bool

	// Text holds the characters of a name string, CDATA section or
	// processing instruction data.
	Text string
	// Hash is the name string hash; not verified.
	Hash uint16
	// Next chains name strings and templates within a dictionary slot.
	Next uint32

	Value Value

	// Index and ValueType describe a substitution.
	Index     uint16
	ValueType ValueType

	// Template is the definition referenced by a template instance.
	Template   NodeID
	TemplateID uint32
	GUID       string
	// DataLength is the template body length, or an element's declared data size.
	DataLength uint32

	Dependency   uint16
	AttrListSize uint32

	Major, Minor uint8

	// Substitutions is the value array owned by a root.
	Substitutions []Value
}
