package infra

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// FileSystemManagerImpl implements domain.FileSystemManager.
type FileSystemManagerImpl struct {
	homeDir string
}

// NewFileSystemManager creates a new filesystem manager.
func NewFileSystemManager() *FileSystemManagerImpl {
	home, _ := os.UserHomeDir()
	return &FileSystemManagerImpl{homeDir: home}
}

// NewFileSystemManagerWithHome creates a filesystem manager with custom home (for testing).
func NewFileSystemManagerWithHome(home string) *FileSystemManagerImpl {
	return &FileSystemManagerImpl{homeDir: home}
}

// Stat returns file info, following symlinks.
func (fm *FileSystemManagerImpl) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(fm.ExpandHome(path))
}

// Exists checks if a path exists.
func (fm *FileSystemManagerImpl) Exists(path string) bool {
	_, err := os.Stat(fm.ExpandHome(path))
	return err == nil
}

// ReadDir lists a directory.
func (fm *FileSystemManagerImpl) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(fm.ExpandHome(path))
}

// Remove deletes a single file or an empty directory. Never recursive.
func (fm *FileSystemManagerImpl) Remove(path string) error {
	return os.Remove(fm.ExpandHome(path))
}

// Chown changes numeric ownership. Negative IDs are left unchanged.
func (fm *FileSystemManagerImpl) Chown(path string, owner domain.Ownership) error {
	if owner.IsZero() {
		return nil
	}
	return os.Chown(fm.ExpandHome(path), owner.UID, owner.GID)
}

// Chmod sets permission bits.
func (fm *FileSystemManagerImpl) Chmod(path string, mode fs.FileMode) error {
	return os.Chmod(fm.ExpandHome(path), mode)
}

// ExpandHome expands ~ to the user's home directory.
func (fm *FileSystemManagerImpl) ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(fm.homeDir, path[2:])
	}
	if path == "~" {
		return fm.homeDir
	}
	return path
}

// Ensure FileSystemManagerImpl implements domain.FileSystemManager.
var _ domain.FileSystemManager = (*FileSystemManagerImpl)(nil)
