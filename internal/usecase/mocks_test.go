package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// diskFS implements domain.FileSystemManager on the real filesystem, with
// per-path failure injection.
type diskFS struct {
	removeErr map[string]error
	chownErr  error
	chowned   []string
}

func (d *diskFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

func (d *diskFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (d *diskFS) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

func (d *diskFS) Remove(path string) error {
	if err, ok := d.removeErr[path]; ok {
		return err
	}
	return os.Remove(path)
}

func (d *diskFS) Chown(path string, owner domain.Ownership) error {
	if d.chownErr != nil {
		return d.chownErr
	}
	d.chowned = append(d.chowned, path)
	return nil
}

func (d *diskFS) Chmod(path string, mode fs.FileMode) error { return os.Chmod(path, mode) }

// mockNotifier records every alert.
type mockNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, alert domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return m.err
}

func (m *mockNotifier) sent() []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Alert(nil), m.alerts...)
}

// mockSupervisor answers from a fixed table.
type mockSupervisor struct {
	running map[string]bool
	errs    map[string]error
	queried []string
}

func (m *mockSupervisor) Kind() string { return "Docker Container" }

func (m *mockSupervisor) IsRunning(ctx context.Context, name string) (bool, error) {
	m.queried = append(m.queried, name)
	if _, ok := ctx.Deadline(); !ok {
		return false, errors.New("query without deadline")
	}
	if err := m.errs[name]; err != nil {
		return false, err
	}
	return m.running[name], nil
}

// mockResolver returns a fixed ownership.
type mockResolver struct {
	owner domain.Ownership
	err   error
}

func (m *mockResolver) Resolve(string) (domain.Ownership, error) { return m.owner, m.err }

type call struct {
	op   string
	args []string
}

// mockSession records surface calls in order.
type mockSession struct {
	mu     sync.Mutex
	calls  []call
	states []domain.MediaState // returned in order, last one repeats
	polls  int
	fail   map[string]error // op -> error
	failOn string           // only fail op when its first arg matches, if set
	closed bool
}

func (s *mockSession) record(op string, args ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{op: op, args: args})
	if err, ok := s.fail[op]; ok && (s.failOn == "" || (len(args) > 0 && args[len(args)-1] == s.failOn)) {
		return err
	}
	return nil
}

func (s *mockSession) SetInputSource(_ context.Context, input, path string) error {
	return s.record("SetInputSource", input, path)
}

func (s *mockSession) SwitchScene(_ context.Context, scene string) error {
	return s.record("SwitchScene", scene)
}

func (s *mockSession) PlaybackState(_ context.Context, input string) (domain.MediaState, error) {
	if err := s.record("PlaybackState", input); err != nil {
		return domain.MediaNone, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return domain.MediaEnded, nil
	}
	i := s.polls
	if i >= len(s.states) {
		i = len(s.states) - 1
	}
	s.polls++
	return s.states[i], nil
}

func (s *mockSession) TriggerAction(_ context.Context, input string, action domain.MediaAction) error {
	return s.record("TriggerAction", input, string(action))
}

func (s *mockSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// ops returns the recorded calls without the playback polls.
func (s *mockSession) ops() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if c.op != "PlaybackState" {
			out = append(out, c)
		}
	}
	return out
}

type mockDialer struct {
	session *mockSession
	err     error
	dials   int
}

func (d *mockDialer) Dial(context.Context) (domain.SceneSession, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

// stepClock is a settable clock for cooldown tests.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}
