package motion

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const frameTime = 1.0 / 60.0

// pushCircle feeds n samples of a circle of the given radius around anchor,
// spanned by the axes u and v, advancing step radians per sample.
func pushCircle(b *Buffer, n int, anchor, u, v r3.Vec, radius, step float64) {
	for k := 0; k < n; k++ {
		theta := float64(k) * step
		offset := r3.Add(r3.Scale(radius*math.Cos(theta), u), r3.Scale(radius*math.Sin(theta), v))
		b.Push(r3.Add(anchor, offset), anchor, frameTime)
	}
}

func TestNew_PrefilledWithZeros(t *testing.T) {
	b := New(DefaultCapacity)

	if b.Len() != DefaultCapacity {
		t.Fatalf("expected length %d, got %d", DefaultCapacity, b.Len())
	}
	for i := 0; i < b.Len(); i++ {
		if b.Direction(i) != (r3.Vec{}) {
			t.Fatalf("sample %d should be zero", i)
		}
	}
	if len(b.X()) != DefaultCapacity || len(b.Y()) != DefaultCapacity {
		t.Error("expected signals to match the capacity")
	}
}

func TestNew_ClampsCapacity(t *testing.T) {
	b := New(0)
	if b.Len() != 2 {
		t.Errorf("expected capacity to be clamped to 2, got %d", b.Len())
	}
}

func TestPush_ShiftsWindow(t *testing.T) {
	b := New(3)
	anchor := r3.Vec{X: 1, Y: 1, Z: 1}

	b.Push(r3.Vec{X: 2, Y: 1, Z: 1}, anchor, frameTime)
	b.Push(r3.Vec{X: 1, Y: 2, Z: 1}, anchor, frameTime)
	b.Push(r3.Vec{X: 1, Y: 1, Z: 2}, anchor, frameTime)
	b.Push(r3.Vec{X: 0, Y: 1, Z: 1}, anchor, frameTime)

	if b.Len() != 3 {
		t.Fatalf("expected length to stay 3, got %d", b.Len())
	}

	expected := []r3.Vec{{X: -1}, {Z: 1}, {Y: 1}}
	for i, want := range expected {
		if got := b.Direction(i); got != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}

	if got := b.Direction(5); got != (r3.Vec{}) {
		t.Errorf("expected zero vector out of range, got %v", got)
	}
}

func TestFit_PlaneNormal(t *testing.T) {
	tests := []struct {
		name string
		u, v r3.Vec
		axis r3.Vec
	}{
		{"floor", r3.Vec{X: 1}, r3.Vec{Z: 1}, r3.Vec{Y: 1}},
		{"wall", r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{"wheel", r3.Vec{Y: 1}, r3.Vec{Z: 1}, r3.Vec{X: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(DefaultCapacity)
			pushCircle(b, DefaultCapacity, r3.Vec{}, tt.u, tt.v, 1, 2*math.Pi/62.5)

			plane := b.Snapshot().Plane
			alignment := math.Abs(r3.Dot(Unit(plane), tt.axis))
			if alignment < 0.99 {
				t.Errorf("expected plane along %v, got %v", tt.axis, plane)
			}
		})
	}
}

func TestFit_LocalRadiusAndVelocity(t *testing.T) {
	b := New(DefaultCapacity)
	anchor := r3.Vec{X: 0.3, Y: 1.2, Z: -0.4}
	step := 2 * math.Pi / 62.5
	pushCircle(b, DefaultCapacity, anchor, r3.Vec{X: 1}, r3.Vec{Y: 1}, 0.8, step)

	snap := b.Snapshot()

	if math.Abs(snap.LocalRadius-0.8) > 1e-6 {
		t.Errorf("expected local radius 0.8, got %f", snap.LocalRadius)
	}

	chord := 2 * 0.8 * math.Sin(step/2)
	if math.Abs(r3.Norm(snap.Velocity)-chord/frameTime) > 1e-6 {
		t.Errorf("expected speed %f, got %f", chord/frameTime, r3.Norm(snap.Velocity))
	}

	if snap.SpinLocation != anchor {
		t.Errorf("expected spin location %v, got %v", anchor, snap.SpinLocation)
	}

	if math.Abs(r3.Norm(snap.Direction)-0.8) > 1e-9 {
		t.Errorf("expected direction length 0.8, got %f", r3.Norm(snap.Direction))
	}
}

func TestFit_UnitSignals(t *testing.T) {
	b := New(DefaultCapacity)
	pushCircle(b, DefaultCapacity, r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 1, 2*math.Pi/62.5)

	for i := range b.X() {
		l := math.Hypot(b.X()[i], b.Y()[i])
		if math.Abs(l-1) > 1e-6 {
			t.Fatalf("sample %d: expected unit direction, got length %f", i, l)
		}
	}
}

func TestFit_ZeroVelocityWithoutFrameTime(t *testing.T) {
	b := New(4)
	b.Push(r3.Vec{X: 1}, r3.Vec{}, 0)

	if b.Snapshot().Velocity != (r3.Vec{}) {
		t.Errorf("expected zero velocity, got %v", b.Snapshot().Velocity)
	}
}

func TestSetConfidence(t *testing.T) {
	b := New(4)
	b.Push(r3.Vec{X: 1}, r3.Vec{}, frameTime)
	b.SetConfidence(0.9)

	if b.Snapshot().CircularConfidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", b.Snapshot().CircularConfidence)
	}

	// the next fit starts from a fresh snapshot
	b.Push(r3.Vec{Y: 1}, r3.Vec{}, frameTime)
	if b.Snapshot().CircularConfidence != 0 {
		t.Errorf("expected confidence reset on push, got %f", b.Snapshot().CircularConfidence)
	}
}

func TestReset(t *testing.T) {
	b := New(8)
	pushCircle(b, 8, r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 1, 0.3)
	b.Reset()

	for i := 0; i < b.Len(); i++ {
		if b.Direction(i) != (r3.Vec{}) {
			t.Fatalf("sample %d should be zero after reset", i)
		}
	}
	if b.Snapshot() != (Snapshot{}) {
		t.Error("expected empty snapshot after reset")
	}
}

func TestUnit(t *testing.T) {
	if Unit(r3.Vec{}) != (r3.Vec{}) {
		t.Error("expected zero vector for zero input")
	}
	if got := Unit(r3.Vec{X: 3, Y: 4}); math.Abs(r3.Norm(got)-1) > 1e-12 {
		t.Errorf("expected unit length, got %f", r3.Norm(got))
	}
	if Unit2(r2.Vec{}) != (r2.Vec{}) {
		t.Error("expected zero 2D vector for zero input")
	}
}
