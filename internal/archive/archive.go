// Package archive finds AIS archives and extracts them.
package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-aisingest/internal/workdir"
)

// Extractor extracts every file of an archive directly into destDir, ignoring the folders of the archive.
type Extractor interface {
	Extract(ctx context.Context, zipPath, destDir string) error
}

// ListArchives returns the names of every entry of dir and the absolute paths of its .zip files, both sorted.
func ListArchives(dir string) (entries []string, archives []string, err error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to list %s", dir)
	}
	for _, entry := range dirEntries {
		entries = append(entries, entry.Name())
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			archives = append(archives, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(entries)
	sort.Strings(archives)

	return entries, archives, nil
}

// ListCSV returns the sorted paths of the .csv files of dir. Like ListArchives, the extension is matched case
// insensitively.
func ListCSV(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", dir)
	}
	var res []string
	for _, entry := range dirEntries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			res = append(res, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(res)

	return res, nil
}

// ZipExtractor extracts zip archives in process.
type ZipExtractor struct{}

// Extract writes each file of the archive to destDir under its base name, overwriting existing files.
func (ZipExtractor) Extract(ctx context.Context, zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", zipPath)
	}
	defer reader.Close()

	err = os.MkdirAll(destDir, 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", destDir)
	}

	for _, file := range reader.File {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if file.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(filepath.FromSlash(file.Name))
		if name == "." || name == ".." || name == string(filepath.Separator) {
			continue
		}
		err := extractFile(file, filepath.Join(destDir, name))
		if err != nil {
			return err
		}
	}

	return nil
}

func extractFile(file *zip.File, dest string) error {
	src, err := file.Open()
	if err != nil {
		return errors.Wrapf(err, "unable to open %s in archive", file.Name)
	}
	defer src.Close()

	return workdir.WriteAtomic(dest, func(f *os.File) error {
		_, err := io.Copy(f, src)

		return err
	})
}

// CommandExtractor runs 7-Zip: `<Program> e <zip> -o<dest> -y`.
type CommandExtractor struct {
	Program string
}

// Extract runs the extraction program. Its combined output is attached to the error on failure.
func (c CommandExtractor) Extract(ctx context.Context, zipPath, destDir string) error {
	program := c.Program
	if program == "" {
		program = "7za"
	}
	//nolint:gosec // program comes from the configuration
	cmd := exec.CommandContext(ctx, program, c.Args(zipPath, destDir)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s failed on %s: %s", program, zipPath, strings.TrimSpace(string(out)))
	}

	return nil
}

// Args returns the extraction arguments: extract ignoring folders, into destDir, answering yes to every prompt.
func (CommandExtractor) Args(zipPath, destDir string) []string {
	return []string{"e", zipPath, "-o" + destDir, "-y"}
}

// ExtractOnce extracts zipPath into destDir unless destDir already exists. The archive is first extracted to a
// sibling temporary folder, so an interrupted extraction is never mistaken for a complete one.
func ExtractOnce(ctx context.Context, extractor Extractor, zipPath, destDir string) (bool, error) {
	ok, err := workdir.Exists(destDir)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}

	parent := filepath.Dir(destDir)
	err = os.MkdirAll(parent, 0o755)
	if err != nil {
		return false, errors.Wrapf(err, "unable to create %s", parent)
	}
	tmpDir, err := os.MkdirTemp(parent, "."+filepath.Base(destDir)+"-*")
	if err != nil {
		return false, errors.Wrap(err, "unable to create temporary folder")
	}

	err = extractor.Extract(ctx, zipPath, tmpDir)
	if err != nil {
		_ = os.RemoveAll(tmpDir)

		return false, err
	}
	err = os.Rename(tmpDir, destDir)
	if err != nil {
		_ = os.RemoveAll(tmpDir)

		return false, errors.Wrapf(err, "unable to move %s", tmpDir)
	}

	return true, nil
}
