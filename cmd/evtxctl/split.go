package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joshuapare/evtxkit/evtx/route"
	"github.com/joshuapare/evtxkit/pkg/evtx"
)

var (
	splitOut         string
	splitGranularity string
	splitBase        string
	splitResync      bool
	splitDeclaration bool
)

func init() {
	cmd := newSplitCmd()
	cmd.Flags().StringVarP(&splitOut, "out", "o", "", "Output directory (default from config, ./out)")
	cmd.Flags().StringVarP(&splitGranularity, "granularity", "g", "", "Unit size: record, chunk or file (default from config, chunk)")
	cmd.Flags().StringVar(&splitBase, "base", "", "Base name for output files (default: input file name)")
	cmd.Flags().BoolVar(&splitResync, "resync", false, "Continue past undecodable records")
	cmd.Flags().BoolVar(&splitDeclaration, "declaration", true, "Write the XML declaration in every unit")
	rootCmd.AddCommand(cmd)
}

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <file.evtx>",
		Short: "Split a log into XML documents and quarantine bad chunks",
		Long: `The split command renders a log into output units and sorts them into
directories below the output directory:

  success/    units whose records all rendered
  failure/    units with at least one record that failed, rendered up to the failure
  badchunks/  raw 64KiB chunks that failed validation, named {base}-chunk{n}.evtx
  original/   an unmodified copy of the input

Example:
  evtxctl split Security.evtx -o out
  evtxctl split Security.evtx -g record --base host1
  evtxctl split Security.evtx --config evtxctl.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runSplit(ctx, args)
		},
	}
}

func runSplit(ctx context.Context, args []string) error {
	path := args[0]

	gran := cfg.Granularity
	if splitGranularity != "" {
		gran = splitGranularity
	}
	g, err := route.ParseGranularity(gran)
	if err != nil {
		return err
	}
	out := cfg.OutputDir
	if splitOut != "" {
		out = splitOut
	}
	base := cfg.BaseName
	if splitBase != "" {
		base = splitBase
	}

	opts := &evtx.SplitOptions{BaseName: base}
	opts.Granularity = g
	opts.Open = openOptions(splitResync || cfg.ResyncRecords)
	opts.Printer.Declaration = splitDeclaration

	printVerbose("Splitting %s into %s by %s\n", path, out, g)
	sum, err := evtx.Split(ctx, path, out, opts)
	if err != nil {
		return fmt.Errorf("failed to split log: %w", err)
	}

	if jsonOut {
		return printJSON(sum)
	}
	printInfo("Chunks: %d valid, %d quarantined\n", sum.Chunks, sum.BadChunks)
	printInfo("Records: %d rendered, %d failed\n", sum.Records, sum.FailedRecords)
	printInfo("Units: %d success, %d failure\n", sum.Success, sum.Failure)
	return nil
}
