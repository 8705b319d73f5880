package binxml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joshuapare/evtxkit/internal/buf"
	"github.com/joshuapare/evtxkit/internal/cursor"
	"github.com/joshuapare/evtxkit/internal/format"
)

// ValueType is the one-byte tag selecting a value encoding.
type ValueType uint8

const (
	TypeNull         ValueType = 0x00
	TypeWString      ValueType = 0x01
	TypeString       ValueType = 0x02
	TypeInt8         ValueType = 0x03
	TypeUint8        ValueType = 0x04
	TypeInt16        ValueType = 0x05
	TypeUint16       ValueType = 0x06
	TypeInt32        ValueType = 0x07
	TypeUint32       ValueType = 0x08
	TypeInt64        ValueType = 0x09
	TypeUint64       ValueType = 0x0A
	TypeFloat32      ValueType = 0x0B
	TypeFloat64      ValueType = 0x0C
	TypeBool         ValueType = 0x0D
	TypeBinary       ValueType = 0x0E
	TypeGUID         ValueType = 0x0F
	TypeSize         ValueType = 0x10
	TypeFiletime     ValueType = 0x11
	TypeSystemtime   ValueType = 0x12
	TypeSID          ValueType = 0x13
	TypeHex32        ValueType = 0x14
	TypeHex64        ValueType = 0x15
	TypeBinXML       ValueType = 0x21
	TypeWStringArray ValueType = 0x81
)

var valueTypeNames = map[ValueType]string{
	TypeNull:         "Null",
	TypeWString:      "WString",
	TypeString:       "String",
	TypeInt8:         "Int8",
	TypeUint8:        "Uint8",
	TypeInt16:        "Int16",
	TypeUint16:       "Uint16",
	TypeInt32:        "Int32",
	TypeUint32:       "Uint32",
	TypeInt64:        "Int64",
	TypeUint64:       "Uint64",
	TypeFloat32:      "Float32",
	TypeFloat64:      "Float64",
	TypeBool:         "Bool",
	TypeBinary:       "Binary",
	TypeGUID:         "GUID",
	TypeSize:         "Size",
	TypeFiletime:     "Filetime",
	TypeSystemtime:   "Systemtime",
	TypeSID:          "SID",
	TypeHex32:        "Hex32",
	TypeHex64:        "Hex64",
	TypeBinXML:       "BinXML",
	TypeWStringArray: "WStringArray",
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ValueType(0x%02x)", uint8(t))
}

// Known reports whether t is in the value table.
func (t ValueType) Known() bool {
	_, ok := valueTypeNames[t]
	return ok
}

// Value is a decoded leaf. Text always holds the rendering; the typed fields
// are filled for the types they describe.
type Value struct {
	Type ValueType
	Text string

	Int   int64     // signed integers
	Uint  uint64    // unsigned integers, Size, Hex32, Hex64
	Float float64   // Float32, Float64
	Bool  bool      // Bool
	Time  time.Time // Filetime, Systemtime (when the fields form a valid date)

	// Strings holds the pieces of a WStringArray.
	Strings []string
	// Root is the nested fragment of a BinXML value.
	Root NodeID
}

// String returns the textual rendering. A WStringArray renders as
// concatenated <string> elements.
func (v Value) String() string { return v.Text }

// IsNull reports whether v is the Null type.
func (v Value) IsNull() bool { return v.Type == TypeNull }

// parseValue decodes one value of type t. length is the declared byte length
// or -1 when the encoding carries its own length prefix.
func (a *Arena) parseValue(r *cursor.Reader, t ValueType, length int, parent NodeID, depth int) (Value, error) {
	v := Value{Type: t, Root: InvalidNode}
	if !t.Known() {
		return v, fmt.Errorf("tag 0x%02x: %w", uint8(t), ErrUnknownValueType)
	}
	if length == 0 {
		return v, nil
	}

	switch t {
	case TypeNull:
		if length > 0 {
			return v, r.Skip(length)
		}
		return v, nil

	case TypeWString:
		chars := length / 2
		if length < 0 {
			n, err := r.ReadU16()
			if err != nil {
				return v, err
			}
			chars = int(n)
		}
		s, err := r.ReadWString(chars)
		if err != nil {
			return v, err
		}
		if length > 0 && length%2 != 0 {
			if err := r.Skip(1); err != nil {
				return v, err
			}
		}
		v.Text = s

	case TypeString:
		n := length
		if length < 0 {
			w, err := r.ReadU16()
			if err != nil {
				return v, err
			}
			n = int(w)
		}
		s, err := r.ReadString(n)
		if err != nil {
			return v, err
		}
		v.Text = s

	case TypeInt8:
		b, err := fixed(r, length, 1)
		if err != nil {
			return v, err
		}
		v.Int = int64(int8(b[0]))
		v.Text = strconv.FormatInt(v.Int, 10)

	case TypeUint8:
		b, err := fixed(r, length, 1)
		if err != nil {
			return v, err
		}
		v.Uint = uint64(b[0])
		v.Text = strconv.FormatUint(v.Uint, 10)

	case TypeInt16:
		b, err := fixed(r, length, format.WORDSize)
		if err != nil {
			return v, err
		}
		v.Int = int64(int16(buf.U16LE(b)))
		v.Text = strconv.FormatInt(v.Int, 10)

	case TypeUint16:
		b, err := fixed(r, length, format.WORDSize)
		if err != nil {
			return v, err
		}
		v.Uint = uint64(buf.U16LE(b))
		v.Text = strconv.FormatUint(v.Uint, 10)

	case TypeInt32:
		b, err := fixed(r, length, format.DWORDSize)
		if err != nil {
			return v, err
		}
		v.Int = int64(int32(buf.U32LE(b)))
		v.Text = strconv.FormatInt(v.Int, 10)

	case TypeUint32:
		b, err := fixed(r, length, format.DWORDSize)
		if err != nil {
			return v, err
		}
		v.Uint = uint64(buf.U32LE(b))
		v.Text = strconv.FormatUint(v.Uint, 10)

	case TypeInt64:
		b, err := fixed(r, length, format.QWORDSize)
		if err != nil {
			return v, err
		}
		v.Int = int64(buf.U64LE(b))
		v.Text = strconv.FormatInt(v.Int, 10)

	case TypeUint64:
		b, err := fixed(r, length, format.QWORDSize)
		if err != nil {
			return v, err
		}
		v.Uint = buf.U64LE(b)
		v.Text = strconv.FormatUint(v.Uint, 10)

	case TypeFloat32:
		b, err := fixed(r, length, format.DWORDSize)
		if err != nil {
			return v, err
		}
		f := math.Float32frombits(buf.U32LE(b))
		v.Float = float64(f)
		v.Text = strconv.FormatFloat(v.Float, 'g', -1, 32)

	case TypeFloat64:
		b, err := fixed(r, length, format.QWORDSize)
		if err != nil {
			return v, err
		}
		v.Float = math.Float64frombits(buf.U64LE(b))
		v.Text = strconv.FormatFloat(v.Float, 'g', -1, 64)

	case TypeBool:
		b, err := fixed(r, length, format.DWORDSize)
		if err != nil {
			return v, err
		}
		v.Bool = buf.U32LE(b) != 0
		v.Text = strconv.FormatBool(v.Bool)

	case TypeBinary:
		n := length
		if length < 0 {
			w, err := r.ReadU32()
			if err != nil {
				return v, err
			}
			n = int(w)
		}
		s, err := r.ReadBase64(n)
		if err != nil {
			return v, err
		}
		v.Text = s

	case TypeGUID:
		b, err := fixed(r, length, format.GUIDSize)
		if err != nil {
			return v, err
		}
		v.Text = format.GUIDString(b)

	case TypeSize:
		width := format.QWORDSize
		if length == format.DWORDSize {
			width = format.DWORDSize
		}
		b, err := fixed(r, length, width)
		if err != nil {
			return v, err
		}
		if width == format.DWORDSize {
			v.Uint = uint64(buf.U32LE(b))
		} else {
			v.Uint = buf.U64LE(b)
		}
		v.Text = strconv.FormatUint(v.Uint, 10)

	case TypeFiletime:
		b, err := fixed(r, length, format.QWORDSize)
		if err != nil {
			return v, err
		}
		v.Uint = buf.U64LE(b)
		v.Time = format.FiletimeToTime(v.Uint)
		v.Text = format.FormatTimestamp(v.Time)

	case TypeSystemtime:
		return decodeSystemtime(r, length, v)

	case TypeSID:
		return decodeSID(r, length, v)

	case TypeHex32:
		b, err := fixed(r, length, format.DWORDSize)
		if err != nil {
			return v, err
		}
		v.Uint = uint64(buf.U32LE(b))
		v.Text = fmt.Sprintf("%08x", v.Uint)

	case TypeHex64:
		b, err := fixed(r, length, format.QWORDSize)
		if err != nil {
			return v, err
		}
		v.Uint = buf.U64LE(b)
		v.Text = fmt.Sprintf("0x%016x", v.Uint)

	case TypeBinXML:
		sub := r
		if length > 0 {
			sub = r.Bounded(length)
		}
		root, err := a.parseRoot(sub, parent, depth+1)
		if err != nil {
			return v, err
		}
		if length > 0 {
			if err := r.Skip(length); err != nil {
				return v, err
			}
		}
		v.Root = root
		v.Text = a.DebugString(root)

	case TypeWStringArray:
		n := length
		if length < 0 {
			w, err := r.ReadU16()
			if err != nil {
				return v, err
			}
			n = int(w)
		}
		b, err := r.ReadBytes(n)
		if err != nil {
			return v, err
		}
		parts, err := splitWStrings(b)
		if err != nil {
			return v, err
		}
		v.Strings = parts
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString("<string>")
			sb.WriteString(p)
			sb.WriteString("</string>")
		}
		v.Text = sb.String()
	}
	return v, nil
}

// fixed reads a fixed-width payload. A declared length longer than width is
// consumed in full and only the first width bytes are returned.
func fixed(r *cursor.Reader, length, width int) ([]byte, error) {
	n := width
	if length >= 0 {
		if length < width {
			return nil, fmt.Errorf("%d bytes declared for %d-byte value: %w", length, width, ErrValueLength)
		}
		n = length
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return b[:width], nil
}

const (
	systemtimeFields      = 8
	systemtimeShortLength = 14 // seven fields, no milliseconds
)

func decodeSystemtime(r *cursor.Reader, length int, v Value) (Value, error) {
	width := systemtimeFields * format.WORDSize
	if length == systemtimeShortLength {
		width = systemtimeShortLength
	}
	b, err := fixed(r, length, width)
	if err != nil {
		return v, err
	}
	var f [systemtimeFields]uint16
	for i := 0; i*format.WORDSize < width; i++ {
		f[i] = buf.U16LE(b[i*format.WORDSize:])
	}
	st := format.Systemtime{
		Year: f[0], Month: f[1], DayOfWeek: f[2], Day: f[3],
		Hour: f[4], Minute: f[5], Second: f[6], Milliseconds: f[7],
	}
	v.Text = st.String()
	if t, err := time.Parse(format.TimestampLayout, v.Text); err == nil {
		v.Time = t
	}
	return v, nil
}

func decodeSID(r *cursor.Reader, length int, v Value) (Value, error) {
	hdr, err := r.PeekBytes(2)
	if err != nil {
		return v, err
	}
	need := 8 + int(hdr[1])*format.DWORDSize
	n := need
	if length >= 0 {
		if length < need {
			return v, fmt.Errorf("%d bytes declared for %d-byte SID: %w", length, need, ErrValueLength)
		}
		n = length
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return v, err
	}

	sr := cursor.New(b[:need])
	revision, _ := sr.ReadByte()
	count, _ := sr.ReadByte()
	hi, _ := sr.ReadU32BE()
	lo, _ := sr.ReadU16BE()
	subs := make([]uint32, count)
	for i := range subs {
		subs[i], _ = sr.ReadU32()
	}
	v.Text = format.SIDString(revision, uint64(hi)<<16^uint64(lo), subs)
	return v, nil
}

// splitWStrings splits a UTF-16LE blob on NUL code units. A trailing
// terminator does not produce an empty final element.
func splitWStrings(b []byte) ([]string, error) {
	var out []string
	start := 0
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] != 0 || b[i+1] != 0 {
			continue
		}
		s, err := cursor.DecodeUTF16LE(b[start:i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		start = i + 2
	}
	if tail := len(b) &^ 1; start < tail {
		s, err := cursor.DecodeUTF16LE(b[start:tail])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
