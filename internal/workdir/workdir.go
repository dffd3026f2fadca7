// Package workdir lays out the working folder of the ingestion.
//
// The working folder holds two trees. files/ keeps the data produced by the pipeline: unzipped archives and
// validated csv files. tmp/ keeps completion markers for units of work that do not produce a file of their own,
// plus the validation counts of each csv file.
package workdir

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var ErrNoWorkdir = errors.New("no working folder defined")

var layout = map[string][]string{
	"files": {"unzipped", "cleancsv"},
	"tmp":   {"processcsv", "writecsv", "archives", "database", "countraw"},
}

// Layout derives every path of the working folder.
type Layout struct {
	Root string
}

// Resolve returns the configured working folder, or the parent of folderOfZips when none is configured.
func Resolve(configured, folderOfZips string) (Layout, error) {
	if configured != "" {
		return Layout{Root: filepath.Clean(configured)}, nil
	}
	if folderOfZips == "" {
		return Layout{}, ErrNoWorkdir
	}

	return Layout{Root: filepath.Dir(filepath.Clean(folderOfZips))}, nil
}

// Setup creates the folder structure. It is safe to call on an existing working folder.
func (l Layout) Setup() error {
	for folder, subfolders := range layout {
		for _, subfolder := range subfolders {
			err := os.MkdirAll(filepath.Join(l.Root, folder, subfolder), 0o755)
			if err != nil {
				return errors.Wrapf(err, "unable to create %s/%s", folder, subfolder)
			}
		}
	}

	return nil
}

func stem(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// UnzippedDir is the folder receiving the content of an archive.
func (l Layout) UnzippedDir(zipPath string) string {
	return filepath.Join(l.Root, "files", "unzipped", stem(zipPath))
}

// CleanCSV is the validated version of a raw csv file.
func (l Layout) CleanCSV(csvPath string) string {
	return filepath.Join(l.Root, "files", "cleancsv", filepath.Base(csvPath))
}

// ProcessMarker marks an archive whose csv files are all validated.
func (l Layout) ProcessMarker(zipPath string) Target {
	return Target(filepath.Join(l.Root, "tmp", "processcsv", stem(zipPath)))
}

// WriteMarker marks an archive whose csv files are all loaded into the database.
func (l Layout) WriteMarker(zipPath string) Target {
	return Target(filepath.Join(l.Root, "tmp", "writecsv", stem(zipPath)))
}

// ArchivesMarker marks a folder of archives as fully processed. Loading into the database has its own marker,
// suffixed with _db.
func (l Layout) ArchivesMarker(folderOfZips string, withDB bool) Target {
	name := "archive_" + filepath.Base(filepath.Clean(folderOfZips))
	if withDB {
		name += "_db"
	}

	return Target(filepath.Join(l.Root, "tmp", "archives", name))
}

// IndexMarker marks the indices of a table as created.
func (l Layout) IndexMarker(table string) Target {
	return Target(filepath.Join(l.Root, "tmp", "database", "create_"+table+"_indexes.txt"))
}

// CountFile holds the validation counts of a csv file.
func (l Layout) CountFile(csvPath string) Target {
	return Target(filepath.Join(l.Root, "tmp", "countraw", filepath.Base(csvPath)))
}
