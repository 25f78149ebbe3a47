// Package motion keeps the rolling position history of a tracked point and
// fits it to a circle once per frame.
package motion

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCapacity is the number of frames kept by a Buffer.
const DefaultCapacity = 125

// minLength is the vector length below which a direction is treated as zero.
const minLength = 1e-5

// verticalDot is the alignment with world up beyond which the fit switches
// to world forward as its reference axis.
const verticalDot = 0.9

var (
	worldUp      = r3.Vec{Y: 1}
	worldForward = r3.Vec{Z: 1}
)

// Snapshot describes the fitted motion of a Buffer for the current frame.
type Snapshot struct {
	SpinLocation       r3.Vec  // anchor position the samples are relative to
	Velocity           r3.Vec  // in-plane velocity of the newest sample
	Direction          r3.Vec  // newest relative sample
	LocalDirection     r2.Vec  // newest sample in the fitted plane, recentred
	Plane              r3.Vec  // mean rotation normal
	LocalRadius        float64 // length of LocalDirection
	CircularConfidence float64 // filled in by the classifier
	Angle              float64 // angle of LocalDirection in radians
}

// Buffer is a fixed-capacity history of positions relative to an anchor.
// Index 0 is always the most recent sample.
type Buffer struct {
	samples  []r3.Vec
	rotated  []r3.Vec
	x        []float64
	y        []float64
	snapshot Snapshot
}

// New creates a Buffer pre-filled with zero samples.
func New(capacity int) *Buffer {
	if capacity < 2 {
		capacity = 2
	}

	return &Buffer{
		samples: make([]r3.Vec, capacity),
		rotated: make([]r3.Vec, capacity),
		x:       make([]float64, capacity),
		y:       make([]float64, capacity),
	}
}

// Len returns the capacity of the buffer. The buffer is always full.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Reset zeroes every sample and the current snapshot.
func (b *Buffer) Reset() {
	clear(b.samples)
	clear(b.rotated)
	clear(b.x)
	clear(b.y)
	b.snapshot = Snapshot{}
}

// Push records world relative to anchor as the newest sample, discards the
// oldest one and refits the window. dt is the frame time used for velocity.
func (b *Buffer) Push(world, anchor r3.Vec, dt float64) {
	copy(b.samples[1:], b.samples[:len(b.samples)-1])
	b.samples[0] = r3.Sub(world, anchor)

	b.fit(anchor, dt)
}

// Snapshot returns the fit of the current window.
func (b *Buffer) Snapshot() Snapshot {
	return b.snapshot
}

// SetConfidence stores the circular confidence computed for this frame.
func (b *Buffer) SetConfidence(c float64) {
	b.snapshot.CircularConfidence = c
}

// Direction returns relative sample i, where 0 is the newest.
func (b *Buffer) Direction(i int) r3.Vec {
	if i < 0 || i >= len(b.samples) {
		return r3.Vec{}
	}
	return b.samples[i]
}

// X returns the x component of the unit in-plane direction of every sample.
// The slice is owned by the buffer and changes on the next Push.
func (b *Buffer) X() []float64 {
	return b.x
}

// Y returns the y component of the unit in-plane direction of every sample.
// The slice is owned by the buffer and changes on the next Push.
func (b *Buffer) Y() []float64 {
	return b.y
}

// fit recomputes the rotation plane and in-plane signals for the window.
//
// Algorithm:
// 1. Average the unit cross product of each consecutive pair to get the plane normal
// 2. Rotate every sample so the normal becomes the local z axis
// 3. Recentre the rotated samples on the rotated window average
// 4. Store the unit 2D direction of each sample as the x/y signals
func (b *Buffer) fit(anchor r3.Vec, dt float64) {
	n := len(b.samples)

	var normal, average r3.Vec
	for i := 0; i < n-1; i++ {
		normal = r3.Add(normal, Unit(r3.Cross(b.samples[i], b.samples[i+1])))
		average = r3.Add(average, b.samples[i])
	}
	average = r3.Add(average, b.samples[n-1])

	normal = r3.Scale(1/float64(n), normal)
	average = r3.Scale(1/float64(n), average)

	right, up, forward := lookBasis(normal)
	toPlane := func(p r3.Vec) r3.Vec {
		return r3.Vec{X: r3.Dot(p, right), Y: r3.Dot(p, up), Z: r3.Dot(p, forward)}
	}

	centre := toPlane(average)
	for i, p := range b.samples {
		b.rotated[i] = toPlane(p)

		local := r2.Vec{X: b.rotated[i].X - centre.X, Y: b.rotated[i].Y - centre.Y}
		dir := Unit2(local)
		b.x[i] = dir.X
		b.y[i] = dir.Y
	}

	local := r2.Vec{X: b.rotated[0].X - centre.X, Y: b.rotated[0].Y - centre.Y}

	var velocity r3.Vec
	if dt > 0 {
		velocity = r3.Scale(1/dt, r3.Sub(b.rotated[1], b.rotated[0]))
	}

	b.snapshot = Snapshot{
		SpinLocation:   anchor,
		Velocity:       velocity,
		Direction:      b.samples[0],
		LocalDirection: local,
		Plane:          normal,
		LocalRadius:    r2.Norm(local),
		Angle:          math.Atan2(local.Y, local.X),
	}
}

// lookBasis returns an orthonormal basis whose forward axis is the given
// normal. Projecting onto the basis undoes a look rotation towards normal.
// A zero normal yields the world axes.
func lookBasis(normal r3.Vec) (right, up, forward r3.Vec) {
	forward = Unit(normal)
	if forward == (r3.Vec{}) {
		return r3.Vec{X: 1}, worldUp, worldForward
	}

	ref := worldUp
	if math.Abs(r3.Dot(forward, worldUp)) > verticalDot {
		ref = worldForward
	}

	right = Unit(r3.Cross(ref, forward))
	up = r3.Cross(forward, right)
	return right, up, forward
}

// Unit returns v scaled to length 1, or the zero vector if v is too short.
func Unit(v r3.Vec) r3.Vec {
	l := r3.Norm(v)
	if l < minLength {
		return r3.Vec{}
	}
	return r3.Scale(1/l, v)
}

// Unit2 returns v scaled to length 1, or the zero vector if v is too short.
func Unit2(v r2.Vec) r2.Vec {
	l := r2.Norm(v)
	if l < minLength {
		return r2.Vec{}
	}
	return r2.Scale(1/l, v)
}
