//go:build !linux

package infra

import (
	"errors"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// InotifySource is unavailable off Linux; use the fsnotify backend instead.
type InotifySource struct{}

// NewInotifySource creates an inotify event source.
func NewInotifySource(*zap.Logger) *InotifySource {
	return &InotifySource{}
}

// Attach always fails off Linux.
func (s *InotifySource) Attach(string) (domain.EventStream, error) {
	return nil, errors.New("inotify backend requires linux; set monitor.watch_backend = \"fsnotify\"")
}

// Ensure InotifySource implements domain.EventSource.
var _ domain.EventSource = (*InotifySource)(nil)
