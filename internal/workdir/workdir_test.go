package workdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tcs := map[string]struct {
		configured, folder string
		want               string
		wantErr            error
	}{
		"configured wins":    {configured: "/work", folder: "/data/ais/zips", want: "/work"},
		"parent of folder":   {folder: "/data/ais/zips", want: "/data/ais"},
		"trailing separator": {folder: "/data/ais/zips/", want: "/data/ais"},
		"nothing":            {wantErr: ErrNoWorkdir},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			got, err := Resolve(tc.configured, tc.folder)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Root)
		})
	}
}

func TestSetup(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	require.NoError(t, l.Setup())
	require.NoError(t, l.Setup())

	for _, dir := range []string{
		"files/unzipped", "files/cleancsv",
		"tmp/processcsv", "tmp/writecsv", "tmp/archives", "tmp/database", "tmp/countraw",
	} {
		assert.DirExists(t, filepath.Join(l.Root, dir))
	}
}

func TestPaths(t *testing.T) {
	l := Layout{Root: "/work"}

	assert.Equal(t, "/work/files/unzipped/2014-01", l.UnzippedDir("/zips/2014-01.zip"))
	assert.Equal(t, "/work/files/cleancsv/day1.csv", l.CleanCSV("/work/files/unzipped/2014-01/day1.csv"))
	assert.Equal(t, "/work/tmp/processcsv/2014-01", l.ProcessMarker("/zips/2014-01.zip").Path())
	assert.Equal(t, "/work/tmp/writecsv/2014-01", l.WriteMarker("/zips/2014-01.zip").Path())
	assert.Equal(t, "/work/tmp/archives/archive_zips", l.ArchivesMarker("/data/zips/", false).Path())
	assert.Equal(t, "/work/tmp/archives/archive_zips_db", l.ArchivesMarker("/data/zips/", true).Path())
	assert.Equal(t, "/work/tmp/database/create_ais_clean_indexes.txt", l.IndexMarker("ais_clean").Path())
	assert.Equal(t, "/work/tmp/countraw/day1.csv", l.CountFile("/x/day1.csv").Path())
}

func TestTarget(t *testing.T) {
	target := Target(filepath.Join(t.TempDir(), "nested", "marker"))

	ok, err := target.Exists()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, target.WriteLines([]string{"a.csv", "b.csv"}))

	ok, err = target.Exists()
	require.NoError(t, err)
	assert.True(t, ok)

	lines, err := target.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, lines)
}

func TestWriteAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := WriteAtomic(path, func(f *os.File) error {
		_, _ = f.WriteString("partial")

		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
