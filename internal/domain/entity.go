// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotRunning reports a dependency that the supervisor knows but is not running.
	ErrNotRunning = errors.New("not running")

	// ErrDayRolledOver ends a daily cycle early because the calendar moved on.
	ErrDayRolledOver = errors.New("day rolled over")
)

// EventKind classifies a filesystem change notification.
type EventKind int

const (
	EventOther EventKind = iota
	EventCreated
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventClosed:
		return "closed"
	default:
		return "other"
	}
}

// FileEvent is a single change notification for one watched directory.
type FileEvent struct {
	Path  string
	IsDir bool
	Kind  EventKind
}

// ClipCandidate describes the clip a trigger is about to play.
// SurfacePath is the path as the remote surface sees it.
type ClipCandidate struct {
	HostPath    string
	SurfacePath string
	Exists      bool
	Size        int64
	Fallback    bool // SurfacePath points at the error clip instead of HostPath
}

// Playable reports whether the original clip can be handed to the surface.
func (c ClipCandidate) Playable() bool {
	return c.Exists && c.Size > 0
}

// MediaState is the normalized playback state of a media input.
type MediaState string

const (
	MediaNone      MediaState = "none"
	MediaPlaying   MediaState = "playing"
	MediaOpening   MediaState = "opening"
	MediaBuffering MediaState = "buffering"
	MediaPaused    MediaState = "paused"
	MediaStopped   MediaState = "stopped"
	MediaEnded     MediaState = "ended"
	MediaError     MediaState = "error"
)

// Terminal reports whether playback has finished one way or another.
func (s MediaState) Terminal() bool {
	return s == MediaEnded || s == MediaStopped
}

// MediaAction is an action that can be triggered on a media input.
type MediaAction string

const (
	MediaActionPlay    MediaAction = "play"
	MediaActionStop    MediaAction = "stop"
	MediaActionRestart MediaAction = "restart"
)

// SceneState is a state of the scene controller state machine.
type SceneState int

const (
	SceneIdle SceneState = iota
	SceneClearing
	SceneLoading
	SceneSwitched
	SceneWaitingForEnd
	SceneReverting
	SceneReArming
)

func (s SceneState) String() string {
	switch s {
	case SceneClearing:
		return "clearing"
	case SceneLoading:
		return "loading"
	case SceneSwitched:
		return "switched"
	case SceneWaitingForEnd:
		return "waiting_for_end"
	case SceneReverting:
		return "reverting"
	case SceneReArming:
		return "rearming"
	default:
		return "idle"
	}
}

// Ownership is a numeric user/group pair. -1 leaves that half unchanged.
type Ownership struct {
	UID int
	GID int
}

// NoOwnership leaves both owner and group untouched.
var NoOwnership = Ownership{UID: -1, GID: -1}

// IsZero reports whether applying o would change nothing.
func (o Ownership) IsZero() bool {
	return o.UID < 0 && o.GID < 0
}

// Alert is an out-of-band operator notification.
type Alert struct {
	Subject   string
	Body      string
	Recipient string
}

// HealthResult captures the outcome of one dependency query.
type HealthResult struct {
	Name      string
	Running   bool
	Err       error
	CheckedAt time.Time
}

// SweepResult captures what happened during a single maintenance sweep.
type SweepResult struct {
	Root         string
	DeletedFiles []string
	DeletedDirs  []string
	Errors       []error
	ExecutedAt   time.Time
	DurationMs   int64
}
