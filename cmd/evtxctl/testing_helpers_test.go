package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/evtxkit/internal/testutil"
)

const epochTicks = 116444736000000000

// sampleLog writes a three-chunk log: two good records, a chunk with a
// corrupt header, and a record followed by an undecodable one.
func sampleLog(t *testing.T) string {
	t.Helper()
	good := testutil.NewChunk()
	good.AddRecord(1, epochTicks, testutil.EmptyRecordBody())
	good.AddRecord(2, epochTicks, testutil.EmptyRecordBody())

	bad := good.Bytes()
	bad[0x10] ^= 0xff

	broken := testutil.NewChunk()
	broken.AddRecord(3, epochTicks, testutil.EmptyRecordBody())
	broken.AddRecord(4, epochTicks, []byte{0x08, 0, 0, 0, 0})

	path := filepath.Join(t.TempDir(), "Sample.evtx")
	require.NoError(t, os.WriteFile(path, testutil.File(good.Bytes(), bad, broken.Bytes()), 0o644))
	return path
}

// resetFlags restores global flag state between tests and keeps output
// free of color codes.
func resetFlags() {
	disableColor()
	verbose, quiet, jsonOut, noColor = false, false, false, false
	logLevel, logDir, configPath = "", "", ""
	cfg = DefaultConfig()
	infoResync = false
	dumpOutput, dumpIndent, dumpNoDeclaration, dumpResync, dumpMaxRecords = "", false, false, false, 0
	splitOut, splitGranularity, splitBase, splitResync, splitDeclaration = "", "", "", false, true
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}
