/*
Package evtx provides a high-level API for reading Windows event log (EVTX)
files.

# Quick Start

Render a whole log as XML:

	stats, err := evtx.Render("Security.evtx", os.Stdout, nil)

# Basic Usage

Summarize a file without rendering it:

	stats, err := evtx.Stats("System.evtx", nil)
	fmt.Printf("%d records in %d chunks\n", stats.Records, stats.Chunks)

Inspect every chunk, including the ones that fail validation:

	chunks, err := evtx.Chunks("System.evtx", nil)
	for _, c := range chunks {
	    if c.Err != nil {
	        fmt.Printf("chunk %d: %v\n", c.Index, c.Err)
	    }
	}

Split a log into per-chunk XML documents with quarantined bad chunks:

	sum, err := evtx.Split(ctx, "System.evtx", "out", nil)

# Error Handling

Errors carry a stable category:

	_, err := evtx.Stats("notes.txt", nil)
	if errors.Is(err, types.ErrNotEVTX) {
	    // not an event log
	}

Malformed chunks and undecodable records are counted, not returned. Only
file-level failures and output failures abort an operation.

# Lower-level access

Open keeps the file mapped and exposes the chunk iterator of the evtx
package for callers that want the decoded trees themselves.
*/
package evtx
