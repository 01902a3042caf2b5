// Package main hosts the inkframe CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the frame in the foreground and turns
// terminal invocations into IPC calls against the running frame: slideshow
// controls, casting, status and notification tests. Offline helpers render a
// single image to PNG and run the preflight checks without a daemon.
package main
