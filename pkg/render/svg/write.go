package svg

import (
	"os"
	"path/filepath"

	errs "github.com/matzehuels/tspart/pkg/errors"
)

// WriteFile writes data to path atomically: the bytes go to a temporary file
// in the same directory, which is renamed over path once complete. A failed
// write never leaves a partial document at path.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errs.Wrap(errs.ErrCodeWrite, err, "create %s", path)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}
