// ABOUTME: Channel multiplexer for interleaved PCM buffers
// ABOUTME: Splits interleaved samples per channel and recombines them
package timescale

// Deinterleave splits an interleaved sample buffer into per-channel
// arrays. Channel c's sample k is buffer[c + k*channels]. Returns nil for
// a non-positive channel count or an empty buffer.
func Deinterleave(buffer []int32, channels int) [][]int32 {
	if channels <= 0 || len(buffer) == 0 {
		return nil
	}
	frames := len(buffer) / channels
	out := make([][]int32, channels)
	for c := range out {
		out[c] = make([]int32, frames)
		for k := 0; k < frames; k++ {
			out[c][k] = buffer[c+k*channels]
		}
	}
	return out
}

// Interleave recombines per-channel arrays in channel order. Output length
// is channels * min(channel lengths): samples past the shortest channel
// are dropped. That truncation is deliberate, not a bug to pad over.
func Interleave(chans [][]int32) []int32 {
	if len(chans) == 0 {
		return nil
	}
	frames := len(chans[0])
	for _, ch := range chans[1:] {
		if len(ch) < frames {
			frames = len(ch)
		}
	}
	out := make([]int32, frames*len(chans))
	for c, ch := range chans {
		for k := 0; k < frames; k++ {
			out[c+k*len(chans)] = ch[k]
		}
	}
	return out
}
