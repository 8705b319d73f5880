package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/evtxkit/pkg/types"
)

func TestInfoCommand(t *testing.T) {
	resetFlags()
	path := sampleLog(t)

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	require.Contains(t, out, "Version: 3.1")
	require.Contains(t, out, "Chunks declared: 3")
	require.Contains(t, out, "Chunks: 2 valid, 1 malformed")
	require.Contains(t, out, "Records: 3 decoded, 1 failed")
}

func TestInfoCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	path := sampleLog(t)

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)

	var report infoReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, 3, report.Header.ChunkCount)
	require.Equal(t, 1, report.Stats.MalformedChunks)
	require.Equal(t, int64(4096+3*65536), report.Size)
}

func TestInfoCommand_NotEVTX(t *testing.T) {
	resetFlags()
	path := filepath.Join(t.TempDir(), "x.evtx")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	err := runInfo([]string{path})
	require.ErrorIs(t, err, types.ErrNotEVTX)
	require.Equal(t, 2, exitCode(err))
}

func TestChunksCommand(t *testing.T) {
	resetFlags()
	path := sampleLog(t)

	out, err := captureOutput(t, func() error { return runChunks([]string{path}) })
	require.NoError(t, err)
	require.Contains(t, out, "CHUNK")
	require.Contains(t, out, "1-2")
	require.Contains(t, out, "checksum")

	jsonOut = true
	out, err = captureOutput(t, func() error { return runChunks([]string{path}) })
	require.NoError(t, err)

	var rows []chunkRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	require.Empty(t, rows[0].Error)
	require.NotEmpty(t, rows[1].Error)
	require.Equal(t, 1, rows[2].FailedRecords)
}

func TestDumpCommand(t *testing.T) {
	resetFlags()
	path := sampleLog(t)

	out, err := captureOutput(t, func() error { return runDump([]string{path}) })
	require.NoError(t, err)
	require.Equal(t, `<?xml version="1.0" encoding="utf-8" standalone="yes"?>`+"\n<Events></Events>", out)
}

func TestDumpCommand_OutputFile(t *testing.T) {
	resetFlags()
	dumpOutput = filepath.Join(t.TempDir(), "out.xml")
	dumpNoDeclaration = true

	_, err := captureOutput(t, func() error { return runDump([]string{sampleLog(t)}) })
	require.NoError(t, err)

	data, err := os.ReadFile(dumpOutput)
	require.NoError(t, err)
	require.Equal(t, "<Events></Events>", string(data))
}

func TestDumpCommand_JSONLines(t *testing.T) {
	resetFlags()
	jsonOut = true

	out, err := captureOutput(t, func() error { return runDump([]string{sampleLog(t)}) })
	require.NoError(t, err)
	require.Contains(t, out, `"record":1`)
	require.Contains(t, out, `"record":3`)
	require.NotContains(t, out, "<Events>")
}

func TestSplitCommand(t *testing.T) {
	resetFlags()
	splitOut = t.TempDir()
	splitGranularity = "record"

	out, err := captureOutput(t, func() error { return runSplit(context.Background(), []string{sampleLog(t)}) })
	require.NoError(t, err)
	require.Contains(t, out, "Chunks: 2 valid, 1 quarantined")

	require.FileExists(t, filepath.Join(splitOut, "success", "Sample-chunk0-record1.xml"))
	require.FileExists(t, filepath.Join(splitOut, "success", "Sample-chunk2-record3.xml"))
	require.FileExists(t, filepath.Join(splitOut, "failure", "Sample-chunk2-record4.xml"))
	require.FileExists(t, filepath.Join(splitOut, "badchunks", "Sample-chunk1.evtx"))
	require.FileExists(t, filepath.Join(splitOut, "original", "Sample.evtx"))
}

func TestSplitCommand_Config(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	out := filepath.Join(dir, "routed")
	cfgFile := filepath.Join(dir, "evtxctl.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"granularity: file\noutput_dir: "+out+"\nbase_name: host1\nlogging:\n  level: warn\n"), 0o644))

	configPath = cfgFile
	require.NoError(t, setup(rootCmd, nil))
	require.Equal(t, "file", cfg.Granularity)

	_, err := captureOutput(t, func() error { return runSplit(context.Background(), []string{sampleLog(t)}) })
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "failure", "host1.xml"))
	require.FileExists(t, filepath.Join(out, "original", "host1.evtx"))
}

func TestSplitCommand_BadGranularity(t *testing.T) {
	resetFlags()
	splitGranularity = "weekly"
	err := runSplit(context.Background(), []string{sampleLog(t)})
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resync_records: true\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, c.ResyncRecords)
	// Unset keys keep their defaults.
	require.Equal(t, "chunk", c.Granularity)
	require.Equal(t, "./out", c.OutputDir)

	require.NoError(t, os.WriteFile(path, []byte("granularity: [\n"), 0o644))
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 1, exitCode(errors.New("plain")))
	require.Equal(t, 3, exitCode(&types.Error{Kind: types.ErrKindChecksum}))
	require.Equal(t, 4, exitCode(&types.Error{Kind: types.ErrKindWrite}))
}
