package usecase

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// PermissionSettings selects the ownership and modes applied to uploads.
type PermissionSettings struct {
	Enabled   bool
	UserGroup string // "user:group", numeric or symbolic, either half optional
	FileMode  fs.FileMode
	DirMode   fs.FileMode
}

// Permissions applies ownership/mode fixups to uploaded clips and day directories.
// Every failure is logged and swallowed.
type Permissions struct {
	settings PermissionSettings
	owner    domain.Ownership
	fs       domain.FileSystemManager
	logger   *zap.Logger
}

// NewPermissions resolves the configured owner once. A resolution failure is
// logged and leaves ownership untouched; mode fixups still apply.
func NewPermissions(
	settings PermissionSettings,
	resolver domain.IdentityResolver,
	fsm domain.FileSystemManager,
	logger *zap.Logger,
) *Permissions {
	owner := domain.NoOwnership
	if settings.Enabled && settings.UserGroup != "" && resolver != nil {
		resolved, err := resolver.Resolve(settings.UserGroup)
		if err != nil {
			logger.Error("failed to resolve user_group for permission fixups",
				zap.String("user_group", settings.UserGroup),
				zap.Error(err))
		} else {
			owner = resolved
		}
	}

	return &Permissions{
		settings: settings,
		owner:    owner,
		fs:       fsm,
		logger:   logger,
	}
}

// Enabled reports whether fixups are turned on.
func (p *Permissions) Enabled() bool {
	return p.settings.Enabled
}

// Apply chowns and chmods path to the configured file or directory mode.
func (p *Permissions) Apply(path string, isDir bool) {
	if !p.settings.Enabled {
		return
	}

	if !p.owner.IsZero() {
		if err := p.fs.Chown(path, p.owner); err != nil {
			p.logFailure("chown", path, err)
		}
	}

	mode := p.settings.FileMode
	if isDir {
		mode = p.settings.DirMode
	}
	info, err := p.fs.Stat(path)
	if err != nil {
		p.logFailure("chmod", path, err)
		return
	}
	if info.Mode().Perm() == mode {
		return
	}
	if err := p.fs.Chmod(path, mode); err != nil {
		p.logFailure("chmod", path, err)
	}
}

// EnsureDirMode sets a directory to exactly the configured mode, logging the
// old and new mode when it had to change.
func (p *Permissions) EnsureDirMode(path string) {
	if !p.settings.Enabled {
		return
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		p.logger.Error("failed to verify directory permissions",
			zap.String("path", path), zap.Error(err))
		return
	}
	current := info.Mode().Perm()
	if current == p.settings.DirMode {
		return
	}
	if err := p.fs.Chmod(path, p.settings.DirMode); err != nil {
		p.logger.Error("failed to fix directory permissions",
			zap.String("path", path), zap.Error(err))
		return
	}
	p.logger.Info("fixed directory permissions",
		zap.String("path", path),
		zap.String("from", formatMode(current)),
		zap.String("to", formatMode(p.settings.DirMode)))
}

func (p *Permissions) logFailure(op, path string, err error) {
	switch {
	case errors.Is(err, fs.ErrPermission):
		p.logger.Error("permission denied", zap.String("op", op), zap.String("path", path), zap.Error(err))
	case errors.Is(err, fs.ErrNotExist):
		p.logger.Warn("path vanished before fixup", zap.String("op", op), zap.String("path", path))
	default:
		p.logger.Error("permission fixup failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
	}
}

func formatMode(m os.FileMode) string {
	return "0" + strconv.FormatUint(uint64(m.Perm()), 8)
}
