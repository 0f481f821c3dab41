package audio

import "math"

// downmix averages interleaved multi-channel samples into mono.
// A channel count of 1 (or less) returns the input unchanged.
func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// resample converts mono samples from inRate to outRate using linear
// interpolation. Equal rates and empty input are returned unchanged.
func resample(in []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(in) == 0 {
		return in
	}
	ratio := float64(outRate) / float64(inRate)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(src - float64(i0))
		out[i] = in[i0]*(1-frac) + in[i0+1]*frac
	}
	return out
}

// int16ToFloat32 converts 16-bit signed PCM samples to float32 in [-1, 1].
func int16ToFloat32(in []int16) []float32 {
	out := make([]float32, len(in))
	const scale = 1.0 / 32768.0
	for i, v := range in {
		out[i] = float32(float64(v) * scale)
	}
	return out
}

// intToFloat32 converts integer PCM samples of the given bit depth to
// float32, clamping to [-1, 1].
func intToFloat32(in []int, bitDepth int) []float32 {
	out := make([]float32, len(in))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range in {
		f := float64(v) * scale
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		out[i] = float32(f)
	}
	return out
}

// float32ToInt16 converts float32 samples in [-1, 1] to 16-bit signed
// PCM, clamping out-of-range values.
func float32ToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		f := float64(v) * 32767
		if f > 32767 {
			f = 32767
		} else if f < -32768 {
			f = -32768
		}
		out[i] = int16(f)
	}
	return out
}
