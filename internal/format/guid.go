package format

import "encoding/hex"

// guidOrder lists the source byte for each output byte of the canonical
// form: the first three groups are little-endian, the last two are stored
// as-is.
var guidOrder = [GUIDSize]int{3, 2, 1, 0, 5, 4, 7, 6, 8, 9, 10, 11, 12, 13, 14, 15}

// GUIDString renders 16 raw bytes as a lowercase hyphenated GUID. It returns
// an empty string when b is shorter than 16 bytes.
func GUIDString(b []byte) string {
	if len(b) < GUIDSize {
		return ""
	}
	var ordered [GUIDSize]byte
	for i, src := range guidOrder {
		ordered[i] = b[src]
	}
	var out [36]byte
	hex.Encode(out[0:8], ordered[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], ordered[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], ordered[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], ordered[8:10])
	out[23] = '-'
	hex.Encode(out[24:36], ordered[10:16])
	return string(out[:])
}
