// Package daemon coordinates the long-running inkframe process.
//
// It wires configuration, the shared playback state, the slideshow scheduler,
// the panel driver and the web remote into a single lifecycle with
// flock-based locking to prevent multiple instances. Control methods used by
// the web remote and the IPC socket forward to the playback state; the
// scheduler goroutine is the only writer to the panel.
//
// Keep orchestration logic here: scheduling rules live in slideshow and
// image handling in compositor, while the daemon focuses on startup, shutdown
// and the control surfaces.
package daemon
