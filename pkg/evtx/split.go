package evtx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joshuapare/evtxkit/evtx/route"
	"github.com/joshuapare/evtxkit/internal/mmfile"
)

// Output subdirectories written by Split.
const (
	SuccessDir  = "success"
	FailureDir  = "failure"
	BadChunkDir = "badchunks"
	OriginalDir = "original"
)

// SplitOptions controls Split.
type SplitOptions struct {
	route.Options

	// BaseName prefixes every output name.
	// Default: the file name without its extension
	BaseName string
}

// Split routes the file at path into outDir: rendered units under success/
// and failure/, quarantined chunks under badchunks/ and a copy of the input
// under original/, even when the header is invalid.
func Split(ctx context.Context, path, outDir string, opts *SplitOptions) (route.Summary, error) {
	if opts == nil {
		opts = &SplitOptions{}
	}
	m, err := mmfile.Open(path)
	if err != nil {
		return route.Summary{}, fmt.Errorf("failed to open log: %w", err)
	}
	defer m.Close()

	r := route.New(DirSinks(outDir), opts.Options)
	base := opts.BaseName
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return r.Route(ctx, base, m.Bytes())
}

// DirSinks returns the directory layout used by Split.
func DirSinks(outDir string) route.Sinks {
	return route.Sinks{
		Success:  route.DirSink{Dir: filepath.Join(outDir, SuccessDir)},
		Failure:  route.DirSink{Dir: filepath.Join(outDir, FailureDir)},
		BadChunk: route.DirSink{Dir: filepath.Join(outDir, BadChunkDir)},
		Original: route.DirSink{Dir: filepath.Join(outDir, OriginalDir)},
	}
}
