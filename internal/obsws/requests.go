package obsws

import "context"

// Media states reported by GetMediaInputStatus.
const (
	MediaStateNone      = "OBS_MEDIA_STATE_NONE"
	MediaStatePlaying   = "OBS_MEDIA_STATE_PLAYING"
	MediaStateOpening   = "OBS_MEDIA_STATE_OPENING"
	MediaStateBuffering = "OBS_MEDIA_STATE_BUFFERING"
	MediaStatePaused    = "OBS_MEDIA_STATE_PAUSED"
	MediaStateStopped   = "OBS_MEDIA_STATE_STOPPED"
	MediaStateEnded     = "OBS_MEDIA_STATE_ENDED"
	MediaStateError     = "OBS_MEDIA_STATE_ERROR"
)

// Media input actions for TriggerMediaInputAction.
const (
	MediaActionPlay    = "OBS_WEBSOCKET_MEDIA_INPUT_ACTION_PLAY"
	MediaActionStop    = "OBS_WEBSOCKET_MEDIA_INPUT_ACTION_STOP"
	MediaActionRestart = "OBS_WEBSOCKET_MEDIA_INPUT_ACTION_RESTART"
)

// VersionInfo is the subset of GetVersion the monitor reports.
type VersionInfo struct {
	OBSVersion          string `json:"obsVersion"`
	OBSWebSocketVersion string `json:"obsWebSocketVersion"`
	Platform            string `json:"platform"`
}

// MediaInputStatus is the GetMediaInputStatus response.
type MediaInputStatus struct {
	MediaState    string `json:"mediaState"`
	MediaDuration *int64 `json:"mediaDuration"`
	MediaCursor   *int64 `json:"mediaCursor"`
}

// GetVersion queries server and plugin versions.
func (c *Client) GetVersion(ctx context.Context) (VersionInfo, error) {
	var v VersionInfo
	err := c.Request(ctx, "GetVersion", nil, &v)
	return v, err
}

// SetInputSettings updates an input's settings, merging into the existing
// ones when overlay is true.
func (c *Client) SetInputSettings(ctx context.Context, inputName string, settings map[string]any, overlay bool) error {
	return c.Request(ctx, "SetInputSettings", map[string]any{
		"inputName":     inputName,
		"inputSettings": settings,
		"overlay":       overlay,
	}, nil)
}

// SetCurrentProgramScene switches the program output to scene.
func (c *Client) SetCurrentProgramScene(ctx context.Context, scene string) error {
	return c.Request(ctx, "SetCurrentProgramScene", map[string]any{"sceneName": scene}, nil)
}

// GetMediaInputStatus returns the playback state of a media input.
func (c *Client) GetMediaInputStatus(ctx context.Context, inputName string) (MediaInputStatus, error) {
	var status MediaInputStatus
	err := c.Request(ctx, "GetMediaInputStatus", map[string]any{"inputName": inputName}, &status)
	return status, err
}

// TriggerMediaInputAction triggers play/stop/restart on a media input.
func (c *Client) TriggerMediaInputAction(ctx context.Context, inputName, action string) error {
	return c.Request(ctx, "TriggerMediaInputAction", map[string]any{
		"inputName":   inputName,
		"mediaAction": action,
	}, nil)
}
