// Package types defines the public vocabulary of evtxkit: typed errors with
// stable categories, open options, and the metadata structs the decoder and
// CLI report.
//
// Design goals:
//   - Typed errors with stable categories (format/checksum/corrupt/...).
//   - Decode failures and consumer (write) failures never share a kind.
//   - Option structs whose zero value is a sensible default.
package types
