// ABOUTME: Package documentation for the time-scale engine
// ABOUTME: Control-point mapping, streaming resampling, frame retiming
//
// Package timescale retimes decoded media onto a new presentation clock.
//
// The audio path maps every output sample position to a (possibly
// fractional) source index via a control-point sequence, then evaluates
// that mapping incrementally against a sliding window of decoded samples
// so memory stays bounded to a small multiple of one decode chunk.
//
// The video path never touches pixels: it re-grids frame timestamps onto
// a fixed-rate output clock, duplicating frames when stretching and
// dropping them when compressing.
package timescale
