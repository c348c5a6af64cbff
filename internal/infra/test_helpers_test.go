package infra

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/eliteGoblin/focusd/cam_mon/internal/obsws"
)

// commandCall records one invocation seen by mockCommandRunner.
type commandCall struct {
	name  string
	args  []string
	stdin string
}

// mockCommandRunner is a test double for CommandRunner
type mockCommandRunner struct {
	mu     sync.Mutex
	calls  []commandCall
	output map[string][]byte // keyed by the last argument
	err    error
}

func newMockCommandRunner() *mockCommandRunner {
	return &mockCommandRunner{output: make(map[string][]byte)}
}

func (m *mockCommandRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, commandCall{name: name, args: args})
	if m.err != nil {
		return nil, m.err
	}
	if len(args) == 0 {
		return nil, nil
	}
	return m.output[args[len(args)-1]], nil
}

func (m *mockCommandRunner) RunWithInput(_ context.Context, input io.Reader, name string, args ...string) error {
	var stdin strings.Builder
	if input != nil {
		_, _ = io.Copy(&stdin, input)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, commandCall{name: name, args: args, stdin: stdin.String()})
	return m.err
}

func (m *mockCommandRunner) recorded() []commandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]commandCall(nil), m.calls...)
}

// mockOBSClient is a test double for obsClient
type mockOBSClient struct {
	settings []map[string]any
	overlay  []bool
	scenes   []string
	actions  []string
	state    string
	err      error
	closed   bool
}

func (m *mockOBSClient) SetInputSettings(_ context.Context, _ string, settings map[string]any, overlay bool) error {
	m.settings = append(m.settings, settings)
	m.overlay = append(m.overlay, overlay)
	return m.err
}

func (m *mockOBSClient) SetCurrentProgramScene(_ context.Context, scene string) error {
	m.scenes = append(m.scenes, scene)
	return m.err
}

func (m *mockOBSClient) GetMediaInputStatus(context.Context, string) (obsws.MediaInputStatus, error) {
	return obsws.MediaInputStatus{MediaState: m.state}, m.err
}

func (m *mockOBSClient) TriggerMediaInputAction(_ context.Context, _, action string) error {
	m.actions = append(m.actions, action)
	return m.err
}

func (m *mockOBSClient) Close() error {
	m.closed = true
	return nil
}
