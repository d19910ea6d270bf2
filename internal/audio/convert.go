// SPDX-License-Identifier: MIT
package audio

// DownmixFloat32 averages interleaved frames of the given channel count into
// mono, reusing dst when it has capacity. A trailing partial frame is dropped.
func DownmixFloat32(dst []float64, in []float32, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}
	frames := len(in) / channels
	dst = grow(dst, frames)

	if channels == 1 {
		for i, s := range in[:frames] {
			dst[i] = float64(s)
		}
		return dst
	}

	scale := 1 / float64(channels)
	for i := range frames {
		var sum float64
		for _, s := range in[i*channels : (i+1)*channels] {
			sum += float64(s)
		}
		dst[i] = sum * scale
	}
	return dst
}

// DownmixInt converts interleaved integer PCM of the given bit depth to mono
// float64 in [-1, 1], reusing dst when it has capacity.
func DownmixInt(dst []float64, in []int, bitDepth, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}
	frames := len(in) / channels
	dst = grow(dst, frames)

	// 8-bit WAV is unsigned; wider depths are signed.
	var offset float64
	full := float64(int64(1) << (bitDepth - 1))
	if bitDepth == 8 {
		offset = full
	}
	scale := 1 / (full * float64(channels))

	for i := range frames {
		var sum float64
		for _, s := range in[i*channels : (i+1)*channels] {
			sum += float64(s) - offset
		}
		dst[i] = clamp(sum * scale)
	}
	return dst
}

func grow(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}

func clamp(v float64) float64 {
	return max(-1, min(1, v))
}
