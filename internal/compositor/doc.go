// Package compositor turns arbitrary source images into fixed-size frames
// ready for the panel driver.
//
// A frame is an opaque white canvas holding the source image after EXIF
// orientation, portrait correction and a downscale-only fit, centered with
// floor offsets. The base filename is drawn in the bottom-right corner and a
// rotation glyph marks frames that were turned to landscape. Fonts are
// probed in order (configured TrueType file, embedded Go Mono Bold, the
// built-in bitmap face) so caption trouble never fails a composite.
package compositor
