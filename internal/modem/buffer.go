// internal/modem/buffer.go
package modem

// SampleBuffer is an append-only window over a sample stream addressed by
// absolute position. Trimming advances the base position; positions held by
// callers stay valid as long as they are >= Base().
type SampleBuffer struct {
	data    []float32
	base    int
	maxLen  int
	trimLen int
}

// NewSampleBuffer creates a buffer that, once longer than maxLen samples,
// keeps only the most recent trimLen samples.
func NewSampleBuffer(maxLen, trimLen int) *SampleBuffer {
	if trimLen > maxLen {
		trimLen = maxLen
	}
	return &SampleBuffer{maxLen: maxLen, trimLen: trimLen}
}

// Append adds samples and trims the front if needed. It returns the number
// of samples dropped from the front.
func (b *SampleBuffer) Append(samples []float32) int {
	b.data = append(b.data, samples...)
	if len(b.data) <= b.maxLen {
		return 0
	}
	cut := len(b.data) - b.trimLen
	b.data = b.data[cut:]
	b.base += cut
	return cut
}

// Base is the absolute position of the oldest retained sample.
func (b *SampleBuffer) Base() int {
	return b.base
}

// End is the absolute position one past the newest sample.
func (b *SampleBuffer) End() int {
	return b.base + len(b.data)
}

// Len is the number of retained samples.
func (b *SampleBuffer) Len() int {
	return len(b.data)
}

// Window returns n samples starting at absolute position pos, or nil if
// that range is not retained.
func (b *SampleBuffer) Window(pos, n int) []float32 {
	i := pos - b.base
	if i < 0 || n < 0 || i+n > len(b.data) {
		return nil
	}
	return b.data[i : i+n : i+n]
}

// Clamp moves pos forward to Base() if it was trimmed away.
func (b *SampleBuffer) Clamp(pos int) int {
	return max(pos, b.base)
}
