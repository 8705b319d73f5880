package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/evtxkit/pkg/evtx"
)

func init() {
	rootCmd.AddCommand(newChunksCmd())
}

func newChunksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chunks <file.evtx>",
		Short: "List every chunk with its record range and validation status",
		Long: `The chunks command validates each 64KiB chunk independently and prints
its record range, record counts and, for chunks that fail validation, the
reason.

Example:
  evtxctl chunks Security.evtx
  evtxctl chunks Security.evtx --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunks(args)
		},
	}
}

type chunkRow struct {
	Index         int    `json:"index"`
	Offset        int64  `json:"offset"`
	FirstRecord   uint64 `json:"first_record"`
	LastRecord    uint64 `json:"last_record"`
	Records       int    `json:"records"`
	FailedRecords int    `json:"failed_records"`
	Error         string `json:"error,omitempty"`
}

func runChunks(args []string) error {
	opts := openOptions(cfg.ResyncRecords)
	chunks, err := evtx.Chunks(args[0], &opts)
	if err != nil {
		return fmt.Errorf("failed to read chunks: %w", err)
	}

	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = chunkRow{
			Index:         c.Index,
			Offset:        c.Offset,
			FirstRecord:   c.FirstRecord,
			LastRecord:    c.LastRecord,
			Records:       c.Records,
			FailedRecords: c.FailedRecords,
		}
		if c.Err != nil {
			rows[i].Error = c.Err.Error()
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	if quiet {
		return nil
	}

	// Status is the last column so color codes do not skew the alignment.
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHUNK\tOFFSET\tRECORDS\tRANGE\tFAILED\tSTATUS")
	for _, r := range rows {
		switch {
		case r.Error != "":
			fmt.Fprintf(tw, "%d\t0x%x\t-\t-\t-\t%s\n", r.Index, r.Offset, badStyle.Render(r.Error))
		case r.FailedRecords > 0:
			fmt.Fprintf(tw, "%d\t0x%x\t%d\t%d-%d\t%d\t%s\n",
				r.Index, r.Offset, r.Records, r.FirstRecord, r.LastRecord, r.FailedRecords, warnStyle.Render("records failed"))
		default:
			fmt.Fprintf(tw, "%d\t0x%x\t%d\t%d-%d\t%d\t%s\n",
				r.Index, r.Offset, r.Records, r.FirstRecord, r.LastRecord, r.FailedRecords, okStyle.Render("ok"))
		}
	}
	return tw.Flush()
}
