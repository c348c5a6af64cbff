package usecase

import (
	"path/filepath"
	"time"
)

// DailyDir returns the storage directory for now's calendar day: base/YYYY/MM/DD.
// The date is taken in now's location.
func DailyDir(base string, now time.Time) string {
	return filepath.Join(base, now.Format("2006"), now.Format("01"), now.Format("02"))
}
