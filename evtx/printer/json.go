package printer

import (
	"encoding/json"

	"github.com/joshuapare/evtxkit/evtx"
	"github.com/joshuapare/evtxkit/internal/format"
)

// jsonEvent is one line of FormatJSON output.
type jsonEvent struct {
	Chunk   int    `json:"chunk"`
	Record  uint64 `json:"record"`
	Written string `json:"written"`
	Offset  int    `json:"offset"`
	XML     string `json:"xml"`
}

func jsonRecord(rec *evtx.Record, xmlText string) ([]byte, error) {
	data, err := json.Marshal(jsonEvent{
		Chunk:   rec.Chunk.Index,
		Record:  rec.Number,
		Written: format.FormatTimestamp(rec.Written),
		Offset:  rec.Offset,
		XML:     xmlText,
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
