package kit

import (
	"bufio"
	"io"
	"os"

	"github.com/google/renameio/v2"
)

// WriteFileAtomic streams write into a temporary file next to path and renames it
// over path once write and the flush succeed. Readers never observe a partial file.
func WriteFileAtomic(path string, perm os.FileMode, write func(w io.Writer) error) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return err
	}
	defer func() { _ = pf.Cleanup() }()

	bw := bufio.NewWriter(pf)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	return pf.CloseAtomicallyReplace()
}
