package evtx_test

import (
	"context"
	"fmt"
	"os"

	"github.com/joshuapare/evtxkit/evtx/route"
	"github.com/joshuapare/evtxkit/pkg/evtx"
)

// ExampleStats summarizes a log.
func ExampleStats() {
	st, err := evtx.Stats("System.evtx", nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%d records, %d failed\n", st.Records, st.FailedRecords)
}

// ExampleRender dumps a log as one XML document.
func ExampleRender() {
	if _, err := evtx.Render("Security.evtx", os.Stdout, nil); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

// ExampleSplit writes one XML document per record.
func ExampleSplit() {
	opts := &evtx.SplitOptions{Options: route.Options{Granularity: route.GranularityRecord}}
	sum, err := evtx.Split(context.Background(), "Application.evtx", "out", opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%d units, %d failed\n", sum.Success, sum.Failure)
}
