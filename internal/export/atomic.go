package export

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// writeAtomic writes a file using the temp-file, fsync, rename pattern so
// that readers never observe a partially written export.
func writeAtomic(path string, fill func(w *bufio.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	fail := func(err error, msg string) error {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, msg)
	}

	w := bufio.NewWriter(tmp)
	if err := fill(w); err != nil {
		return fail(err, "writing "+filepath.Base(path))
	}
	if err := w.Flush(); err != nil {
		return fail(err, "flushing buffer")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}
