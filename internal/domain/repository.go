package domain

import (
	"context"
	"io/fs"
)

// FileSystemManager handles filesystem operations.
type FileSystemManager interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (fs.FileInfo, error)

	// Exists checks if a path exists.
	Exists(path string) bool

	// ReadDir lists a directory.
	ReadDir(path string) ([]fs.DirEntry, error)

	// Remove deletes a single file or an empty directory.
	Remove(path string) error

	// Chown changes numeric ownership. Negative IDs are left unchanged.
	Chown(path string, owner Ownership) error

	// Chmod sets permission bits.
	Chmod(path string, mode fs.FileMode) error
}

// IdentityResolver turns a "user:group" spec into numeric IDs.
// Either half may be numeric, symbolic or empty.
type IdentityResolver interface {
	Resolve(userGroup string) (Ownership, error)
}

// EventSource attaches change notification streams to directories.
type EventSource interface {
	// Attach starts observing dir non-recursively.
	// An error here means nothing is being watched.
	Attach(dir string) (EventStream, error)
}

// EventStream is an attached watch on one directory.
type EventStream interface {
	// Serve calls handle for every event, one at a time, until ctx is
	// canceled or the stream fails. Serve releases the watch before returning,
	// so no handle call is in flight once it has returned.
	Serve(ctx context.Context, handle func(context.Context, FileEvent)) error

	// Dir returns the watched directory.
	Dir() string
}

// SceneDialer opens sessions to the remote scene/media control surface.
type SceneDialer interface {
	Dial(ctx context.Context) (SceneSession, error)
}

// SceneSession is one connection to the remote control surface.
type SceneSession interface {
	// SetInputSource points a media input at a file in the surface's namespace.
	SetInputSource(ctx context.Context, input, path string) error

	// SwitchScene changes the active program scene.
	SwitchScene(ctx context.Context, scene string) error

	// PlaybackState returns the normalized state of a media input.
	PlaybackState(ctx context.Context, input string) (MediaState, error)

	// TriggerAction triggers a media action on an input.
	TriggerAction(ctx context.Context, input string, action MediaAction) error

	// Close releases the connection.
	Close() error
}

// Supervisor answers whether a named dependency is running.
// Implementations: docker CLI, systemd over D-Bus, process table.
type Supervisor interface {
	// Kind is a human label for the dependency type, e.g. "Docker Container".
	Kind() string

	// IsRunning reports the running state of name.
	IsRunning(ctx context.Context, name string) (bool, error)
}

// Notifier delivers an out-of-band operator alert.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}
