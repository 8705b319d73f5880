package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInit_WritesAtLevel(t *testing.T) {
	t.Cleanup(func() { _ = Init(Options{}) })

	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Level: slog.LevelWarn, Writer: &out}))
	Info("hidden")
	Warn("shown", "chunk", 3)
	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "msg=shown chunk=3")

	out.Reset()
	require.NoError(t, Init(Options{Enabled: true, JSON: true, Writer: &out}))
	Info("json")
	require.Contains(t, out.String(), `"msg":"json"`)

	require.NoError(t, Init(Options{}))
	Error("discarded")
	require.NotContains(t, out.String(), "discarded")
}

func TestInit_LogDirRemovesOldFiles(t *testing.T) {
	t.Cleanup(func() { _ = Init(Options{}) })

	dir := t.TempDir()
	old := filepath.Join(dir, logPrefix+time.Now().AddDate(0, 0, -90).Format("2006-01-02")+logSuffix)
	keep := filepath.Join(dir, "unrelated.log")
	require.NoError(t, os.WriteFile(old, nil, 0644))
	require.NoError(t, os.WriteFile(keep, nil, 0644))

	require.NoError(t, Init(Options{Enabled: true, LogDir: dir}))
	Info("to file")

	_, err := os.Stat(old)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(keep)
	require.NoError(t, err)

	today := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	data, err := os.ReadFile(today)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestOr(t *testing.T) {
	require.Same(t, L, Or(nil))
	l := slog.New(slog.DiscardHandler)
	require.Same(t, l, Or(l))
}
