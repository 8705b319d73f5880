package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/evtxkit/evtx/printer"
	"github.com/joshuapare/evtxkit/pkg/evtx"
)

var (
	dumpOutput        string
	dumpIndent        bool
	dumpNoDeclaration bool
	dumpResync        bool
	dumpMaxRecords    int
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&dumpIndent, "indent", false, "Indent elements")
	cmd.Flags().BoolVar(&dumpNoDeclaration, "no-declaration", false, "Omit the XML declaration")
	cmd.Flags().BoolVar(&dumpResync, "resync", false, "Continue past undecodable records")
	cmd.Flags().IntVar(&dumpMaxRecords, "max-records", 0, "Stop after this many records (0 = all)")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.evtx>",
		Short: "Render every record as XML",
		Long: `The dump command renders all decodable records as a single <Events>
document. With --json each record becomes one JSON line carrying its chunk,
number, timestamp and XML.

Example:
  evtxctl dump System.evtx
  evtxctl dump System.evtx --indent -o system.xml
  evtxctl dump System.evtx --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
}

func runDump(args []string) error {
	path := args[0]
	printVerbose("Opening log: %s\n", path)

	opts := evtx.DefaultRenderOptions()
	opts.Printer.Declaration = !dumpNoDeclaration
	if dumpIndent {
		opts.Printer.Indent = "  "
	}
	if jsonOut {
		opts.Printer.Format = printer.FormatJSON
	}
	opts.Open = openOptions(dumpResync || cfg.ResyncRecords)
	opts.Open.Limits.MaxRecords = dumpMaxRecords

	var w io.Writer = os.Stdout
	if dumpOutput != "" {
		f, err := os.Create(dumpOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	stats, err := evtx.Render(path, w, opts)
	if err != nil {
		return fmt.Errorf("failed to dump log: %w", err)
	}
	printVerbose("Rendered %d records (%d failed, %d malformed chunks)\n",
		stats.Records, stats.FailedRecords, stats.MalformedChunks)
	return nil
}
