package workdir

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Target is a file whose existence means a unit of work is complete.
type Target string

// Path returns the file path of the target.
func (t Target) Path() string {
	return string(t)
}

// Exists reports whether the target has been written.
func (t Target) Exists() (bool, error) {
	return Exists(string(t))
}

// WriteLines writes lines, one per line, to the target.
func (t Target) WriteLines(lines []string) error {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	return t.Write([]byte(content))
}

// Write atomically replaces the target content.
func (t Target) Write(data []byte) error {
	return WriteAtomic(string(t), func(f *os.File) error {
		_, err := f.Write(data)

		return err
	})
}

// ReadLines returns the non empty lines of the target.
func (t Target) ReadLines() ([]string, error) {
	data, err := os.ReadFile(string(t))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", t)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines, nil
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Wrapf(err, "unable to stat %s", path)
	}
}

// WriteAtomic calls write on a temporary file in the directory of path, then renames it to path.
// A failed write leaves no file at path.
func WriteAtomic(path string, write func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "unable to create temporary file for %s", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	err = write(tmp)
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}
	err = tmp.Close()
	if err != nil {
		return errors.Wrapf(err, "unable to close %s", tmp.Name())
	}
	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return errors.Wrapf(err, "unable to rename %s", tmp.Name())
	}

	return nil
}
