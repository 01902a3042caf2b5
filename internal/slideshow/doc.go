// Package slideshow runs the scheduler that decides what the panel shows.
//
// Each cycle resolves one of three phases. A cast override is shown once
// and held until resumed; otherwise the catalog is listed afresh and the
// index is moved according to the pending command (reverse first, then
// advance or the natural tick while unpaused); an empty catalog shows the
// fallback image. Between cycles the scheduler waits in short increments so
// commands take effect quickly. Pausing freezes the dwell clock.
package slideshow
