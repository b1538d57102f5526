package filesystem

import (
	"errors"
	"io/fs"
	"os"

	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure OS implements the interface.
var _ driven.FileSystem = OS{}

// OS reads file stats from the operating system.
type OS struct{}

// Stat returns size, modification time and kind of path.
func (OS) Stat(path string) (driven.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return driven.FileInfo{}, err
	}
	return driven.FileInfo{
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		IsDir:      info.IsDir(),
	}, nil
}

// Exists reports whether path exists. Permission errors count as existing
// so the orphan sweep never deletes data it merely cannot see.
func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
