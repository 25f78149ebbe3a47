package synth

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-9
}

func TestCircle_At(t *testing.T) {
	c := Circle{Plane: WallPlane, Reach: r3.Vec{Z: 0.3}, Radius: 0.8, Period: 1}
	shoulder := r3.Vec{Y: 1.5}

	hand, poi := c.At(0.25, shoulder)
	if !near(hand, r3.Vec{Y: 1.5, Z: 0.3}) {
		t.Errorf("unexpected hand %v", hand)
	}
	// a quarter turn from +U lands on +V
	if !near(poi, r3.Vec{Y: 2.3, Z: 0.3}) {
		t.Errorf("unexpected poi %v", poi)
	}
}

func TestExtension_At(t *testing.T) {
	e := Extension{Plane: WallPlane, Arm: 0.6, Radius: 0.8, Period: 1}

	for _, ts := range []float64{0, 0.1, 0.37, 0.8} {
		hand, poi := e.At(ts, r3.Vec{})
		arm := r3.Unit(hand)
		tether := r3.Unit(r3.Sub(poi, hand))
		if r3.Dot(arm, tether) < 1-1e-9 {
			t.Errorf("t=%f: expected poi along the arm", ts)
		}
		if math.Abs(r3.Norm(hand)-0.6) > 1e-9 {
			t.Errorf("t=%f: expected arm length 0.6, got %f", ts, r3.Norm(hand))
		}
	}
}

func TestSequence_Freeze(t *testing.T) {
	c := Circle{Plane: FloorPlane, Radius: 1, Period: 1}
	s := NewSequence(false).Then(2, c).Freeze(1).Then(1, Hold{Length: 0.5})

	if s.Duration() != 4 {
		t.Fatalf("expected duration 4, got %f", s.Duration())
	}

	_, end := c.At(2, r3.Vec{})
	for _, ts := range []float64{2, 2.5, 2.99} {
		if _, poi := s.At(ts, r3.Vec{}); !near(poi, end) {
			t.Errorf("t=%f: expected frozen poi %v, got %v", ts, end, poi)
		}
	}

	_, mid := c.At(1.3, r3.Vec{})
	if _, poi := s.At(1.3, r3.Vec{}); !near(poi, mid) {
		t.Errorf("expected the circle before the freeze, got %v", poi)
	}

	if _, poi := s.At(3.5, r3.Vec{}); !near(poi, r3.Vec{Y: -0.5}) {
		t.Errorf("expected hanging poi after the freeze, got %v", poi)
	}
	// past the end the last segment continues
	if _, poi := s.At(10, r3.Vec{}); !near(poi, r3.Vec{Y: -0.5}) {
		t.Errorf("expected last segment past the end, got %v", poi)
	}
}

func TestSequence_Loop(t *testing.T) {
	s := NewSequence(true).Then(1, Hold{Length: 1}).Then(1, Hold{Length: 2})

	if _, poi := s.At(2.5, r3.Vec{}); !near(poi, r3.Vec{Y: -1}) {
		t.Errorf("expected the first segment again, got %v", poi)
	}

	if _, poi := NewSequence(false).At(1, r3.Vec{}); !near(poi, r3.Vec{}) {
		t.Errorf("expected empty sequence to hold at the shoulder, got %v", poi)
	}
}

func TestRig_Frames(t *testing.T) {
	r := NewRig()
	frames := r.Frames(3)

	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if !f.Active || f.DeltaTime != DefaultFrameTime {
			t.Errorf("frame %d: unexpected header %+v", i, f)
		}
		if f.Left.Shoulder.X >= f.Right.Shoulder.X {
			t.Errorf("frame %d: expected left shoulder left of the right one", i)
		}
		if f.Left.Poi.Y >= f.Left.Hand.Y {
			t.Errorf("frame %d: expected hanging poi below the hand", i)
		}
	}

	if r.Time() != 3*DefaultFrameTime {
		t.Errorf("expected rig to advance 3 frames, got %f", r.Time())
	}
}

func TestRig_NextLimit(t *testing.T) {
	r := NewRig()
	r.Limit = 2

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := r.Next(ctx); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	if _, err := r.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestRig_NextCancelled(t *testing.T) {
	r := NewRig()
	r.Interval = time.Hour
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDemo(t *testing.T) {
	r := Demo()
	defer r.Close()

	if r.Interval <= 0 || r.Limit != 0 {
		t.Errorf("expected an endless paced rig, got interval %v limit %d", r.Interval, r.Limit)
	}

	f := r.Frame(600)
	if f.Left.Poi == f.Left.Hand {
		t.Error("expected the poi away from the hand")
	}
}
