package binxml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/evtxkit/internal/format"
	"github.com/joshuapare/evtxkit/internal/testutil"
)

func decodeValue(t *testing.T, typ ValueType, length int, data []byte) (Value, int, error) {
	t.Helper()
	a := NewArena(data, nil)
	r := a.Reader(0)
	v, err := a.parseValue(r, typ, length, InvalidNode, 0)
	return v, r.Offset(), err
}

func le(n int, v uint64) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func TestValue_Renderings(t *testing.T) {
	sid := []byte{1, 2, 0, 0, 0, 0, 0, 5}
	sid = append(sid, le(4, 21)...)
	sid = append(sid, le(4, 32)...)

	systime := make([]byte, 0, 16)
	for _, f := range []uint64{2016, 7, 5, 8, 18, 12, 51, 681} {
		systime = append(systime, le(2, f)...)
	}

	tests := []struct {
		name   string
		typ    ValueType
		length int
		data   []byte
		want   string
		used   int
	}{
		{"int8", TypeInt8, -1, []byte{0xFF}, "-1", 1},
		{"uint8", TypeUint8, -1, []byte{0xFF}, "255", 1},
		{"int16", TypeInt16, -1, le(2, 0xFFFE), "-2", 2},
		{"uint16", TypeUint16, -1, le(2, 0xFFFE), "65534", 2},
		{"int32", TypeInt32, -1, le(4, 0xFFFFFFFF), "-1", 4},
		{"uint32", TypeUint32, -1, le(4, 4000000000), "4000000000", 4},
		{"int64", TypeInt64, -1, le(8, math.MaxUint64), "-1", 8},
		{"uint64", TypeUint64, -1, le(8, math.MaxUint64), "18446744073709551615", 8},
		{"float32", TypeFloat32, -1, le(4, uint64(math.Float32bits(1.5))), "1.5", 4},
		{"float64", TypeFloat64, -1, le(8, math.Float64bits(0.1)), "0.1", 8},
		{"bool true", TypeBool, -1, le(4, 2), "true", 4},
		{"bool false", TypeBool, -1, le(4, 0), "false", 4},
		{"binary prefixed", TypeBinary, -1, append(le(4, 4), 0xde, 0xad, 0xbe, 0xef), "3q2+7w==", 8},
		{"binary declared", TypeBinary, 2, []byte{0xde, 0xad}, "3q0=", 2},
		{"guid", TypeGUID, -1, []byte("0123456789abcdef"), "33323130-3534-3736-3839-616263646566", 16},
		{"size 4", TypeSize, 4, le(4, 77), "77", 4},
		{"size 8", TypeSize, 8, le(8, 1<<40), "1099511627776", 8},
		{"size inline", TypeSize, -1, le(8, 9), "9", 8},
		{"filetime", TypeFiletime, -1, le(8, 116444736000000000), "1970-01-01T00:00:00.000Z", 8},
		{"systemtime", TypeSystemtime, -1, systime, "2016-07-08T18:12:51.681Z", 16},
		{"systemtime short", TypeSystemtime, 14, systime[:14], "2016-07-08T18:12:51.000Z", 14},
		{"sid", TypeSID, -1, sid, "S-1-5-21-32", 16},
		{"hex32", TypeHex32, -1, le(4, 0xabcd), "0000abcd", 4},
		{"hex64", TypeHex64, -1, le(8, 0xdeadbeef), "0x00000000deadbeef", 8},
		{"wstring prefixed", TypeWString, -1, append(le(2, 2), testutil.UTF16("hi")...), "hi", 6},
		{"wstring declared", TypeWString, 6, testutil.UTF16("hi\x00"), "hi", 6},
		{"string prefixed", TypeString, -1, append(le(2, 3), 'a', 'b', 0), "ab", 5},
		{"string declared", TypeString, 4, []byte{'x', 0, 'y', 'z'}, "x", 4},
		{"null declared", TypeNull, 3, []byte{1, 2, 3}, "", 3},
		{"null inline", TypeNull, -1, nil, "", 0},
		{"zero length", TypeUint32, 0, nil, "", 0},
		{"declared longer than width", TypeUint16, 4, le(4, 0x00010002), "2", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, used, err := decodeValue(t, tt.typ, tt.length, tt.data)
			require.NoError(t, err)
			require.Equal(t, tt.typ, v.Type)
			require.Equal(t, tt.want, v.String())
			require.Equal(t, tt.used, used)
		})
	}
}

func TestValue_TypedFields(t *testing.T) {
	v, _, err := decodeValue(t, TypeFiletime, -1, le(8, 116444736000000000+10000*1500))
	require.NoError(t, err)
	require.Equal(t, int64(1500), v.Time.UnixMilli())

	v, _, err = decodeValue(t, TypeInt16, -1, le(2, 0x8000))
	require.NoError(t, err)
	require.Equal(t, int64(math.MinInt16), v.Int)

	v, _, err = decodeValue(t, TypeBool, -1, le(4, 1))
	require.NoError(t, err)
	require.True(t, v.Bool)
}

func TestValue_SystemtimeInlineWidth(t *testing.T) {
	// An inline SYSTEMTIME carries all eight WORDs, milliseconds included.
	data := make([]byte, 0, 18)
	for _, f := range []uint64{2020, 2, 6, 29, 23, 59, 58, 999} {
		data = append(data, le(2, f)...)
	}
	data = append(data, 0xAA, 0xBB)

	a := NewArena(data, nil)
	r := a.Reader(0)
	v, err := a.parseValue(r, TypeSystemtime, -1, InvalidNode, 0)
	require.NoError(t, err)
	require.Equal(t, "2020-02-29T23:59:58.999Z", v.String())
	require.Equal(t, 8*format.WORDSize, r.Offset())

	next, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), next)

	// Seven WORDs are not enough inline.
	_, _, err = decodeValue(t, TypeSystemtime, -1, data[:14])
	require.ErrorIs(t, err, format.ErrTruncated)
}

func TestValue_WStringArray(t *testing.T) {
	data := testutil.UTF16("a\x00bc\x00")
	v, used, err := decodeValue(t, TypeWStringArray, len(data), data)
	require.NoError(t, err)
	require.Equal(t, len(data), used)
	require.Equal(t, []string{"a", "bc"}, v.Strings)
	require.Equal(t, "<string>a</string><string>bc</string>", v.String())

	// Without a trailing terminator the last piece is still kept.
	prefixed := append(le(2, 6), testutil.UTF16("x\x00y")...)
	v, used, err = decodeValue(t, TypeWStringArray, -1, prefixed)
	require.NoError(t, err)
	require.Equal(t, 8, used)
	require.Equal(t, []string{"x", "y"}, v.Strings)
}

func TestValue_BinXML(t *testing.T) {
	body := testutil.EmptyRecordBody()
	v, used, err := decodeValue(t, TypeBinXML, -1, body)
	require.NoError(t, err)
	require.Equal(t, len(body), used)
	require.NotEqual(t, InvalidNode, v.Root)
	require.Equal(t, "Root[EndOfStream]", v.String())

	padded := append(append([]byte{}, body...), 0xAA, 0xAA)
	v, used, err = decodeValue(t, TypeBinXML, len(padded), padded)
	require.NoError(t, err)
	require.Equal(t, len(padded), used)
	require.NotEqual(t, InvalidNode, v.Root)
}

func TestValue_Errors(t *testing.T) {
	_, _, err := decodeValue(t, ValueType(0x16), -1, []byte{0})
	require.ErrorIs(t, err, ErrUnknownValueType)

	_, _, err = decodeValue(t, TypeUint32, 2, []byte{1, 2})
	require.ErrorIs(t, err, ErrValueLength)

	_, _, err = decodeValue(t, TypeUint64, -1, []byte{1, 2, 3})
	require.ErrorIs(t, err, format.ErrTruncated)

	_, _, err = decodeValue(t, TypeSID, 8, []byte{1, 1, 0, 0, 0, 0, 0, 5, 1, 0, 0, 0})
	require.ErrorIs(t, err, ErrValueLength)

	_, _, err = decodeValue(t, TypeString, 2, []byte{'a', 'b'})
	require.Error(t, err)
}

func TestValueType_String(t *testing.T) {
	require.Equal(t, "WStringArray", TypeWStringArray.String())
	require.Equal(t, "ValueType(0x16)", ValueType(0x16).String())
	require.False(t, ValueType(0x16).Known())
	require.Equal(t, "Template", KindTemplate.String())
	require.Equal(t, "Kind(0x20)", Kind(0x20).String())
}
