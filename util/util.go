package util

import (
	"sync"

	"github.com/fogleman/ease"
)

// GenerateLut builds a rise-and-fall look-up table of the given length using
// an in-out quadratic ease. Index 0 and the last index are 0; the middle
// approaches 1.
func GenerateLut(length int) []float64 {
	lut := make([]float64, length)
	if length < 2 {
		return lut
	}

	increment := 1.0 / float64(length/2)
	for i, j := 0, length-1; i < length/2; i, j = i+1, j-1 {
		value := float64(i) * increment
		lut[i] = ease.InOutQuad(value)
		lut[j] = ease.InOutQuad(value)
	}
	if length%2 == 1 {
		lut[length/2] = 1
	}
	return lut
}

// Memoizer caches look-up tables by length.
type Memoizer struct {
	mu   sync.Mutex
	luts map[int][]float64
}

// GenerateLutMemoized returns a cached table from m, generating it on first use.
func GenerateLutMemoized(length int, m *Memoizer) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.luts == nil {
		m.luts = make(map[int][]float64)
	}
	if lut, ok := m.luts[length]; ok {
		return lut
	}

	lut := GenerateLut(length)
	m.luts[length] = lut
	return lut
}

// FadeIn eases elapsed/duration in [0,1] with an out-cubic curve.
func FadeIn(elapsedMs, durationMs int64) float64 {
	if durationMs <= 0 || elapsedMs >= durationMs {
		return 1
	}
	if elapsedMs <= 0 {
		return 0
	}
	return ease.OutCubic(float64(elapsedMs) / float64(durationMs))
}
