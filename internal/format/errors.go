package format

import "errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrChecksum indicates a stored CRC32 did not match the computed one.
	ErrChecksum = errors.New("format: checksum mismatch")
	// ErrVersion indicates an unsupported version or block size constant.
	ErrVersion = errors.New("format: unsupported version")
	// ErrSanityLimit indicates a length or offset exceeded what the format allows.
	ErrSanityLimit = errors.New("format: sanity limit exceeded")
)
