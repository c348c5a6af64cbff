package infra

import (
	"context"
	"fmt"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cam_mon/internal/obsws"
)

// Compile-time interface checks
var (
	_ domain.SceneDialer  = (*OBSDialer)(nil)
	_ domain.SceneSession = (*obsSession)(nil)
)

// mediaSourceKey is the ffmpeg_source setting holding the clip path.
const mediaSourceKey = "local_file"

// obsClient is the subset of *obsws.Client a session uses.
type obsClient interface {
	SetInputSettings(ctx context.Context, inputName string, settings map[string]any, overlay bool) error
	SetCurrentProgramScene(ctx context.Context, scene string) error
	GetMediaInputStatus(ctx context.Context, inputName string) (obsws.MediaInputStatus, error)
	TriggerMediaInputAction(ctx context.Context, inputName, action string) error
	Close() error
}

// OBSDialer opens one obs-websocket session per trigger.
type OBSDialer struct {
	cfg  obsws.Config
	dial func(ctx context.Context, cfg obsws.Config) (obsClient, error)
}

// NewOBSDialer creates a dialer for the given server.
func NewOBSDialer(cfg obsws.Config) *OBSDialer {
	return &OBSDialer{
		cfg: cfg,
		dial: func(ctx context.Context, cfg obsws.Config) (obsClient, error) {
			return obsws.Dial(ctx, cfg)
		},
	}
}

// Dial connects and identifies.
func (d *OBSDialer) Dial(ctx context.Context) (domain.SceneSession, error) {
	client, err := d.dial(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	return &obsSession{client: client}, nil
}

// Version connects, reports server versions and disconnects.
func (d *OBSDialer) Version(ctx context.Context) (obsws.VersionInfo, error) {
	client, err := obsws.Dial(ctx, d.cfg)
	if err != nil {
		return obsws.VersionInfo{}, err
	}
	defer client.Close()
	return client.GetVersion(ctx)
}

type obsSession struct {
	client obsClient
}

func (s *obsSession) SetInputSource(ctx context.Context, input, path string) error {
	return s.client.SetInputSettings(ctx, input, map[string]any{mediaSourceKey: path}, true)
}

func (s *obsSession) SwitchScene(ctx context.Context, scene string) error {
	return s.client.SetCurrentProgramScene(ctx, scene)
}

func (s *obsSession) PlaybackState(ctx context.Context, input string) (domain.MediaState, error) {
	status, err := s.client.GetMediaInputStatus(ctx, input)
	if err != nil {
		return domain.MediaNone, err
	}
	return mediaState(status.MediaState), nil
}

func (s *obsSession) TriggerAction(ctx context.Context, input string, action domain.MediaAction) error {
	obsAction, err := mediaAction(action)
	if err != nil {
		return err
	}
	return s.client.TriggerMediaInputAction(ctx, input, obsAction)
}

func (s *obsSession) Close() error {
	return s.client.Close()
}

func mediaState(state string) domain.MediaState {
	switch state {
	case obsws.MediaStatePlaying:
		return domain.MediaPlaying
	case obsws.MediaStateOpening:
		return domain.MediaOpening
	case obsws.MediaStateBuffering:
		return domain.MediaBuffering
	case obsws.MediaStatePaused:
		return domain.MediaPaused
	case obsws.MediaStateStopped:
		return domain.MediaStopped
	case obsws.MediaStateEnded:
		return domain.MediaEnded
	case obsws.MediaStateError:
		return domain.MediaError
	default:
		return domain.MediaNone
	}
}

func mediaAction(action domain.MediaAction) (string, error) {
	switch action {
	case domain.MediaActionPlay:
		return obsws.MediaActionPlay, nil
	case domain.MediaActionStop:
		return obsws.MediaActionStop, nil
	case domain.MediaActionRestart:
		return obsws.MediaActionRestart, nil
	default:
		return "", fmt.Errorf("unsupported media action %q", action)
	}
}
