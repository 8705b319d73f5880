// Package evtx reads Windows XML Event Log (EVTX) files.
//
// A File yields Chunks, a Chunk yields Records, and every Record owns the
// root of a binary XML tree stored in the chunk's binxml.Arena. Iteration is
// pull-based and single-threaded at every level: only one 64KiB chunk is held
// in memory at a time.
//
// Failures are scoped. A bad file header is fatal. A chunk that fails
// validation is reported as a *MalformedChunkError carrying the chunk's exact
// bytes, and File.Next can be called again for the following chunk. A record
// that fails to decode is reported as a *RecordError; the rest of its chunk
// is abandoned unless OpenOptions.ResyncRecords is set.
//
//	f, err := evtx.NewFile(r, types.OpenOptions{})
//	for c, err := range f.Chunks() {
//		var bad *evtx.MalformedChunkError
//		if errors.As(err, &bad) {
//			quarantine(bad.Data)
//			bad.Discard()
//			continue
//		}
//		...
//		for rec, err := range c.Records() { ... }
//	}
package evtx
