// Package playback holds the shared slideshow control state.
//
// Remote handlers and the local control socket mutate it; the scheduler reads
// and consumes it. Every read and write goes through one mutex and a
// single-slot wake channel tells the scheduler that something changed.
package playback
