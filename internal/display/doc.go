// Package display defines the panel driver contract used by the slideshow
// and the drivers inkframe ships with.
//
// Every error a driver returns wraps ErrDriver. The scheduler treats such
// errors as fatal: the panel is shut down and the process exits.
package display
