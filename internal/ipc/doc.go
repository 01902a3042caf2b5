// Package ipc exposes the daemon over a JSON-RPC Unix socket and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Control
// commands forward to the daemon's playback state; cast requests name a file
// on the daemon host which is copied to the configured cast path.
package ipc
