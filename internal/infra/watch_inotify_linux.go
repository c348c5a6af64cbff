//go:build linux

package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

const inotifyMask = unix.IN_CLOSE_WRITE | unix.IN_CREATE | unix.IN_MOVED_TO |
	unix.IN_DELETE_SELF | unix.IN_MOVE_SELF

// InotifySource watches directories with inotify and reports IN_CLOSE_WRITE
// as a closed event, so a clip is seen only once its writer is done with it.
type InotifySource struct {
	logger *zap.Logger
}

// NewInotifySource creates an inotify event source.
func NewInotifySource(logger *zap.Logger) *InotifySource {
	return &InotifySource{logger: logger}
}

// Attach starts a non-recursive watch on dir.
func (s *InotifySource) Attach(dir string) (domain.EventStream, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	if _, err := unix.InotifyAddWatch(fd, dir, inotifyMask); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("inotify watch %s: %w", dir, err)
	}

	// A non-blocking fd wrapped by os.NewFile is pollable, so reads honor deadlines.
	return &inotifyStream{
		dir:    dir,
		file:   os.NewFile(uintptr(fd), "inotify"),
		logger: s.logger,
	}, nil
}

type inotifyStream struct {
	dir    string
	file   *os.File
	logger *zap.Logger
}

func (s *inotifyStream) Dir() string { return s.dir }

// Serve reads events until ctx is canceled. Closing the fd drops the watch.
func (s *inotifyStream) Serve(ctx context.Context, handle func(context.Context, domain.FileEvent)) error {
	defer s.file.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = s.file.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))
	for {
		n, err := s.file.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read inotify events: %w", err)
		}

		for _, raw := range decodeInotify(buf[:n]) {
			switch {
			case raw.mask&unix.IN_Q_OVERFLOW != 0:
				s.logger.Warn("inotify queue overflow, events dropped", zap.String("dir", s.dir))
				continue
			case raw.mask&(unix.IN_IGNORED|unix.IN_DELETE_SELF|unix.IN_MOVE_SELF) != 0:
				return fmt.Errorf("%s: %w", s.dir, ErrWatchRemoved)
			}

			ev := domain.FileEvent{
				Path:  filepath.Join(s.dir, raw.name),
				IsDir: raw.mask&unix.IN_ISDIR != 0,
				Kind:  inotifyKind(raw.mask),
			}
			if ctx.Err() != nil {
				return nil
			}
			handle(ctx, ev)
		}
	}
}

func inotifyKind(mask uint32) domain.EventKind {
	switch {
	case mask&unix.IN_CLOSE_WRITE != 0:
		return domain.EventClosed
	case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
		return domain.EventCreated
	default:
		return domain.EventOther
	}
}

type inotifyRecord struct {
	mask uint32
	name string
}

// decodeInotify splits a read buffer into records.
func decodeInotify(buf []byte) []inotifyRecord {
	var records []inotifyRecord
	for offset := 0; offset+unix.SizeofInotifyEvent <= len(buf); {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		start := offset + unix.SizeofInotifyEvent
		end := start + int(raw.Len)
		if end > len(buf) {
			break
		}
		records = append(records, inotifyRecord{
			mask: raw.Mask,
			name: strings.TrimRight(string(buf[start:end]), "\x00"),
		})
		offset = end
	}
	return records
}

// Ensure InotifySource implements domain.EventSource.
var _ domain.EventSource = (*InotifySource)(nil)
