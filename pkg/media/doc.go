// ABOUTME: Package documentation for media types
// ABOUTME: Describes the shared data model of the retiming engine
//
// Package media defines the value types that flow through the retiming
// engine (PCM chunks, encoded frames, asset descriptors) and the
// decoder/encoder contracts that concrete collaborators implement.
//
// Samples are carried as int32 regardless of the native bit depth:
// 16-bit payloads are left-shifted into the 24-bit range so that all
// arithmetic downstream is depth-independent.
package media
