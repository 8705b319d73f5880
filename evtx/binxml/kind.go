package binxml

import "fmt"

// Kind identifies a node. Values below 0x10 are the on-disk token numbers;
// the rest are synthetic kinds for structures that have no token of their own.
type Kind uint8

const (
	KindEndOfStream             Kind = 0x00
	KindOpenStartElement        Kind = 0x01
	KindCloseStartElement       Kind = 0x02
	KindCloseEmptyElement       Kind = 0x03
	KindCloseElement            Kind = 0x04
	KindValue                   Kind = 0x05
	KindAttribute               Kind = 0x06
	KindCDATA                   Kind = 0x07
	kindReserved                Kind = 0x08
	KindEntityReference         Kind = 0x09
	KindPITarget                Kind = 0x0A
	KindPIData                  Kind = 0x0B
	KindTemplateInstance        Kind = 0x0C
	KindNormalSubstitution      Kind = 0x0D
	KindConditionalSubstitution Kind = 0x0E
	KindStreamStart             Kind = 0x0F

	KindRoot       Kind = 0x10
	KindNameString Kind = 0x11
	KindTemplate   Kind = 0x12
)

var kindNames = map[Kind]string{
	KindEndOfStream:             "EndOfStream",
	KindOpenStartElement:        "OpenStartElement",
	KindCloseStartElement:       "CloseStartElement",
	KindCloseEmptyElement:       "CloseEmptyElement",
	KindCloseElement:            "CloseElement",
	KindValue:                   "Value",
	KindAttribute:               "Attribute",
	KindCDATA:                   "CDATA",
	kindReserved:                "Reserved",
	KindEntityReference:         "EntityReference",
	KindPITarget:                "PITarget",
	KindPIData:                  "PIData",
	KindTemplateInstance:        "TemplateInstance",
	KindNormalSubstitution:      "NormalSubstitution",
	KindConditionalSubstitution: "ConditionalSubstitution",
	KindStreamStart:             "StreamStart",
	KindRoot:                    "Root",
	KindNameString:              "NameString",
	KindTemplate:                "Template",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(0x%02x)", uint8(k))
}

// FlagMore is the only flag bit any token accepts. On an open start element
// it announces an attribute list; elsewhere it marks that more siblings follow.
const FlagMore = 0x4

// allowedFlags is indexed by token number.
var allowedFlags = [16]uint8{
	KindOpenStartElement: FlagMore,
	KindValue:            FlagMore,
	KindAttribute:        FlagMore,
	KindCDATA:            FlagMore,
	KindEntityReference:  FlagMore,
}

// endSet is a bitmask of kinds that terminate a child list.
type endSet uint32

func ends(kinds ...Kind) endSet {
	var s endSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

func (s endSet) has(k Kind) bool { return k < 32 && s&(1<<k) != 0 }

var elementEnds = ends(KindCloseEmptyElement, KindCloseElement)
