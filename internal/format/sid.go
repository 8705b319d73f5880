package format

import (
	"strconv"
	"strings"
)

// SIDString renders a security identifier in S-R-A-S1-S2... form.
//
// The 48-bit identifier authority is stored big-endian. Callers assemble it
// from a big-endian DWORD followed by a big-endian WORD as (high<<16) ^ low.
func SIDString(revision uint8, authority uint64, subAuthorities []uint32) string {
	var b strings.Builder
	b.WriteString("S-")
	b.WriteString(strconv.FormatUint(uint64(revision), 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatUint(authority, 10))
	for _, sub := range subAuthorities {
		b.WriteByte('-')
		b.WriteString(strconv.FormatUint(uint64(sub), 10))
	}
	return b.String()
}
