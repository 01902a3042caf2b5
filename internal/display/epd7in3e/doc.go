// Package epd7in3e drives the Waveshare 7.3 inch (E) six-colour e-paper
// panel over SPI and GPIO using periph.io.
//
// Frames are dithered onto the six panel inks and packed two pixels per
// byte, high nibble first. Refreshes take tens of seconds; every busy wait
// is bounded by the configured timeout.
package epd7in3e
