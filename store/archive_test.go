package store

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeZip(t *testing.T, members map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func xzBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	return buf.Bytes()
}

func TestLoadZipMergesMembers(t *testing.T) {
	t.Parallel()

	// Both members carry 2024-01-02; the later member (sorted by path) wins.
	path := writeZip(t, map[string][]byte{
		"2024a.csv": []byte("time,open,high,low,close,volume\n" +
			"2024-01-01,10,11,9,10,1000\n" +
			"2024-01-02,10,11,9,10.5,1000\n"),
		"2024b.csv": []byte("time,open,high,low,close,volume\n" +
			"2024-01-02,10,12,9,11.5,2000\n" +
			"2024-01-03,11,12,10,12,1500\n"),
	})

	s, err := LoadZip(path, "ACME")
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, day(0), s.Bars[0].Time)
	assert.Equal(t, day(1), s.Bars[1].Time)
	assert.Equal(t, day(2), s.Bars[2].Time)
	assert.Equal(t, 11.5, s.Bars[1].Close, "duplicate timestamp resolves to the later member")
	assert.Equal(t, 2000.0, s.Bars[1].Volume)
}

func TestLoadZipWithCompressedMember(t *testing.T) {
	t.Parallel()

	path := writeZip(t, map[string][]byte{
		"jan.csv": []byte("time,open,high,low,close,volume\n2024-01-01,10,11,9,10,1000\n"),
		"feb.csv.xz": xzBytes(t, "time,open,high,low,close,volume\n"+
			"2024-02-01,11,12,10,11.5,900\n"),
	})

	s, err := LoadZip(path, "ACME")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 11.5, s.Bars[1].Close)
}

func TestLoadZipNoCSVMembers(t *testing.T) {
	t.Parallel()

	path := writeZip(t, map[string][]byte{"readme.txt": []byte("nothing here")})
	_, err := LoadZip(path, "ACME")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no csv members")
}

func TestLoadZipBadMember(t *testing.T) {
	t.Parallel()

	path := writeZip(t, map[string][]byte{
		"bad.csv": []byte("time,open,high,low,close,volume\n2024-01-01,10,11,9,oops,1000\n"),
	})
	_, err := LoadZip(path, "ACME")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv")
	assert.Contains(t, err.Error(), `bad close "oops"`)
}
