// Package signal provides the one-dimensional signal helpers used to score
// how circular a tracked motion is: min/max normalisation, discrete
// derivatives, Gaussian smoothing and the harmonic error of a direction
// signal against its own derivative.
package signal

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Default smoothing kernel settings.
const (
	// DefaultKernelVariance is the spread of the smoothing kernel in samples.
	DefaultKernelVariance = 2.0
	// DefaultKernelWidth is the number of taps in the smoothing kernel.
	DefaultKernelWidth = 21
)

// Normalise rescales x into the range [-1, 1] using its minimum and maximum.
// A new slice is returned; x is left untouched.
// If every value is equal the result is all zeros.
func Normalise(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}

	lo := floats.Min(x)
	hi := floats.Max(x)
	span := hi - lo

	// No span, leave the zero values in place
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return out
	}

	for i, v := range x {
		out[i] = 2*(v-lo)/span - 1
	}
	return out
}

// DeltaNormalise returns the change between consecutive entries of x,
// rescaled into [-1, 1]. The result has len(x)-1 entries.
func DeltaNormalise(x []float64) []float64 {
	if len(x) < 2 {
		return []float64{}
	}

	d := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		d[i-1] = x[i] - x[i-1]
	}
	return Normalise(d)
}

// GaussianKernel builds a smoothing kernel of the given width.
// The entry at width/2 is the centre tap.
func GaussianKernel(variance float64, width int) []float64 {
	if width <= 0 {
		return []float64{}
	}

	k := make([]float64, width)
	v2 := variance * variance
	for i := range k {
		d := float64(i - width/2)
		k[i] = 1 / (2 * math.Pi * v2) * math.Exp(-(d*d)/(2*v2))
	}
	return k
}

// Smooth applies the kernel to x. Taps that fall outside x are dropped and
// the remaining weights renormalised, so edge samples are averaged over a
// truncated kernel rather than padded or wrapped. An empty kernel returns a
// copy of x.
func Smooth(x, kernel []float64) []float64 {
	out := make([]float64, len(x))
	if len(kernel) == 0 {
		copy(out, x)
		return out
	}
	half := len(kernel) / 2

	for i := range x {
		var sum, weight float64
		for j := -half; j <= half; j++ {
			if i+j < 0 || i+j >= len(x) {
				continue
			}
			w := kernel[j+half]
			sum += x[i+j] * w
			weight += w
		}
		if weight > 0 {
			out[i] = sum / weight
		}
	}
	return out
}

// HarmonicError measures how far a sample and the derivative paired with it
// are from the quadrature relationship of a sinusoid. Both inputs are
// shifted into [0.5, 1.5] before differencing.
func HarmonicError(data, delta float64) float64 {
	absData := data*0.5 + 1.0
	absDelta := delta*0.5 + 1.0

	return absDelta - absData
}

// CircularError scores the unit direction signal (x, y) of a window against
// uniform circular motion. For a perfect circle x[i] follows dy and y[i]
// follows -dx, so the error approaches 0. The result is averaged over both
// axes and divided by the window size; confidence is 1 - CircularError.
func CircularError(x, y, kernel []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return 1
	}

	dy := Normalise(Smooth(DeltaNormalise(y[:n]), kernel))
	dx := Normalise(Smooth(DeltaNormalise(x[:n]), kernel))

	var errX, errY float64
	for i := 1; i < n; i++ {
		errX += math.Abs(HarmonicError(x[i], dy[i-1]))
		errY += math.Abs(HarmonicError(y[i], -dx[i-1]))
	}

	return ((errX + errY) / 2) / float64(n)
}
