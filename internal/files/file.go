// Package files writes output files atomically: data goes to a temporary
// file next to the destination, which is renamed over it on success.
package files

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// defaultMode is used when the destination does not exist yet. An existing
// destination keeps its mode.
const defaultMode fs.FileMode = 0o644

// WriteFile calls write with a buffered writer for file and replaces file
// only if write and the flush succeed. On failure the previous contents are
// untouched and no temporary file is left behind.
func WriteFile(file string, write func(io.Writer) error) (err error) {
	mode := defaultMode
	if fi, statErr := os.Stat(file); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(file), filepath.Base(file)+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), file)
}
