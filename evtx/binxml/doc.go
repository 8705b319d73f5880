// Package binxml decodes the binary XML (BXML) token stream stored in EVTX
// chunks.
//
// Nodes live in an Arena owned by the chunk they were read from and are
// addressed by NodeID. Name strings and templates are dictionary entries:
// they are parsed once, keyed by their chunk-relative offset, and every later
// reference to the same offset resolves to the same NodeID. Templates are
// shared between records, so nothing inside a template records which record
// instantiated it; substitutions are resolved against a root at render time.
//
// Token layout (low nibble of the leading byte; high nibble is flags):
//
//	0x00 end of stream          0x08 reserved
//	0x01 open start element     0x09 entity reference
//	0x02 close start element    0x0A processing instruction target
//	0x03 close empty element    0x0B processing instruction data
//	0x04 close element          0x0C template instance
//	0x05 value                  0x0D normal substitution
//	0x06 attribute              0x0E conditional substitution
//	0x07 CDATA section          0x0F stream start (fragment header)
package binxml
