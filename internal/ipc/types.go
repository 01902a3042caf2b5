package ipc

import (
	"inkframe/internal/playback"
	"inkframe/internal/slideshow"
)

// NextRequest skips to the next image.
type NextRequest struct{}

// PreviousRequest goes back one image.
type PreviousRequest struct{}

// TogglePauseRequest flips the paused flag.
type TogglePauseRequest struct{}

// ResumeRequest ends a cast and unpauses.
type ResumeRequest struct{}

// CommandResponse acknowledges a control command.
type CommandResponse struct {
	Paused  bool   `json:"paused"`
	Message string `json:"message"`
}

// CastRequest casts an image file that exists on the daemon host.
type CastRequest struct {
	Path string `json:"path"`
}

// CastResponse reports the stored cast location.
type CastResponse struct {
	Target     string `json:"target"`
	Generation uint64 `json:"generation"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and slideshow status.
type StatusResponse struct {
	Running    bool              `json:"running"`
	PID        int               `json:"pid"`
	Driver     string            `json:"driver"`
	ImageDir   string            `json:"image_dir"`
	LockPath   string            `json:"lock_path"`
	LogPath    string            `json:"log_path"`
	RemoteAddr string            `json:"remote_addr"`
	Playback   playback.Snapshot `json:"playback"`
	Slideshow  slideshow.Status  `json:"slideshow"`
	LastError  string            `json:"last_error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification test result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
