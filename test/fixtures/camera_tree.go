// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"time"
)

// CameraTree builds a base/YYYY/MM/DD clip layout like the one an IP camera
// uploads into.
type CameraTree struct {
	Base string
	Now  time.Time
}

// NewCameraTree creates a tree generator rooted at base.
func NewCameraTree(base string, now time.Time) *CameraTree {
	return &CameraTree{Base: base, Now: now}
}

// DayDir returns the directory for the day daysAgo days before Now.
func (c *CameraTree) DayDir(daysAgo int) string {
	t := c.Now.AddDate(0, 0, -daysAgo)
	return filepath.Join(c.Base, t.Format("2006"), t.Format("01"), t.Format("02"))
}

// AddDay creates the day directory and backdates its mtime.
func (c *CameraTree) AddDay(daysAgo int) (string, error) {
	dir := c.DayDir(daysAgo)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, c.age(dir, daysAgo)
}

// AddClip writes a clip into the day directory with both file and directory
// mtimes set daysAgo days before Now.
func (c *CameraTree) AddClip(daysAgo int, name string, data []byte) (string, error) {
	dir, err := c.AddDay(daysAgo)
	if err != nil {
		return "", err
	}
	clip := filepath.Join(dir, name)
	if err := os.WriteFile(clip, data, 0644); err != nil {
		return "", err
	}
	if err := c.age(clip, daysAgo); err != nil {
		return "", err
	}
	// Writing the clip bumped the directory mtime.
	return clip, c.age(dir, daysAgo)
}

// Exists reports whether path exists.
func (c *CameraTree) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Cleanup removes the whole tree.
func (c *CameraTree) Cleanup() error {
	return os.RemoveAll(c.Base)
}

func (c *CameraTree) age(path string, daysAgo int) error {
	t := c.Now.AddDate(0, 0, -daysAgo)
	return os.Chtimes(path, t, t)
}
