package binxml

import (
	"errors"
	"fmt"
)

var (
	// ErrBadToken indicates the reserved token 0x08 or an unknown token.
	ErrBadToken = errors.New("binxml: invalid token")
	// ErrBadFlags indicates flag bits a token does not accept.
	ErrBadFlags = errors.New("binxml: unexpected token flags")
	// ErrStreamVersion indicates a fragment header other than version 1.1.
	ErrStreamVersion = errors.New("binxml: unsupported fragment version")
	// ErrTemplateID indicates a template instance whose id differs from the
	// definition it points at.
	ErrTemplateID = errors.New("binxml: template id mismatch")
	// ErrTemplateLength indicates a template data length beyond the format limit.
	ErrTemplateLength = errors.New("binxml: template data length out of range")
	// ErrUnresolvedReference indicates a back reference to a dictionary
	// offset that was never parsed.
	ErrUnresolvedReference = errors.New("binxml: unresolved back reference")
	// ErrSubstitutionIndex indicates a substitution index outside the root's
	// substitution array.
	ErrSubstitutionIndex = errors.New("binxml: substitution index out of range")
	// ErrTooDeep indicates nesting beyond MaxDepth.
	ErrTooDeep = errors.New("binxml: nesting too deep")
	// ErrTooLarge indicates a tree whose rendering exceeds the node or output
	// budget, typically nested fragments re-instantiating a shared template.
	ErrTooLarge = errors.New("binxml: rendered tree too large")
	// ErrUnknownValueType indicates a value type tag outside the value table.
	ErrUnknownValueType = errors.New("binxml: unknown value type")
	// ErrValueLength indicates a declared value length shorter than the
	// type's fixed width.
	ErrValueLength = errors.New("binxml: declared value length too short")
)

// DecodeError locates a node-level failure. Only the innermost failing node
// is reported; enclosing nodes pass it through unchanged.
type DecodeError struct {
	Offset int
	Kind   Kind
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("binxml: %s at 0x%x: %v", e.Kind, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func wrapNode(kind Kind, off int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Offset: off, Kind: kind, Err: err}
}
