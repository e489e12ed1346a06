package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/catalogsync/internal/config"
)

func TestDumpKey(t *testing.T) {
	assert.Equal(t, "run-1/listing/00003", DumpKey("run-1", "listing", 3))
}

func TestFileDumpAppendsPerRun(t *testing.T) {
	dir := t.TempDir()
	d, err := NewFileDump(dir, testLogger)
	require.NoError(t, err)

	require.NoError(t, d.Append("run-a", "listing", 1, []byte("<html>one</html>")))
	require.NoError(t, d.Append("run-a", "listing", 2, []byte("<html>two</html>")))
	require.NoError(t, d.Append("run-b", "listing", 1, []byte("<html>other</html>")))
	require.NoError(t, d.Close())

	data, err := os.ReadFile(filepath.Join(dir, "run-a.log"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "=== run-a/listing/00001")
	assert.Contains(t, content, "=== run-a/listing/00002")
	assert.Less(t, strings.Index(content, "one"), strings.Index(content, "two"))
	assert.NotContains(t, content, "other")

	_, err = os.Stat(d.Path("run-b"))
	assert.NoError(t, err)
}

func TestBadgerDumpRoundTrip(t *testing.T) {
	d, err := NewBadgerDump(t.TempDir(), testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.Append("run-a", "listing", 1, []byte("page one")))
	require.NoError(t, d.Append("run-a", "listing", 2, []byte("page two")))
	require.NoError(t, d.Append("run-b", "listing", 1, []byte("elsewhere")))

	got, err := d.Get("run-a/listing/00002")
	require.NoError(t, err)
	assert.Equal(t, "page two", string(got))

	keys, err := d.Keys("run-a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a/listing/00001", "run-a/listing/00002"}, keys)
}

func TestBadgerDumpKeysInPageOrder(t *testing.T) {
	d, err := NewBadgerDump(t.TempDir(), testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	for _, page := range []int{10, 2, 1, 11} {
		require.NoError(t, d.Append("run-a", "listing", page, []byte("page")))
	}

	keys, err := d.Keys("run-a/listing/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		DumpKey("run-a", "listing", 1),
		DumpKey("run-a", "listing", 2),
		DumpKey("run-a", "listing", 10),
		DumpKey("run-a", "listing", 11),
	}, keys)
}

func TestNewDumpSelectsSink(t *testing.T) {
	d, err := NewDump(config.DumpConfig{Type: "none"}, testLogger)
	require.NoError(t, err)
	assert.Equal(t, "none", d.Name())

	d, err = NewDump(config.DumpConfig{Type: "file", Path: t.TempDir()}, testLogger)
	require.NoError(t, err)
	assert.Equal(t, "file", d.Name())
	require.NoError(t, d.Close())

	_, err = NewDump(config.DumpConfig{Type: "s3"}, testLogger)
	assert.Error(t, err)
}
