// Package synth generates deterministic performer motion for tests and the
// demo mode.
package synth

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/ayusman/poivr/internal/app"
	"github.com/ayusman/poivr/internal/primitive"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultFrameTime is the frame time of a Rig, 60 frames per second.
const DefaultFrameTime = 1.0 / 60.0

// Motion places the hand and poi of one arm at time t, given the position of
// its shoulder.
type Motion interface {
	At(t float64, shoulder r3.Vec) (hand, poi r3.Vec)
}

// Plane is a pair of orthonormal axes a circle is drawn in.
type Plane struct {
	U, V r3.Vec
}

// Body planes for a performer facing +Z.
var (
	WallPlane  = Plane{U: r3.Vec{X: 1}, V: r3.Vec{Y: 1}}
	FloorPlane = Plane{U: r3.Vec{X: 1}, V: r3.Vec{Z: 1}}
	WheelPlane = Plane{U: r3.Vec{Z: 1}, V: r3.Vec{Y: 1}}
)

func (p Plane) point(centre r3.Vec, radius, theta float64) r3.Vec {
	offset := r3.Add(r3.Scale(radius*math.Cos(theta), p.U), r3.Scale(radius*math.Sin(theta), p.V))
	return r3.Add(centre, offset)
}

// Hold keeps the hand still with the poi hanging straight down.
type Hold struct {
	Reach  r3.Vec  // hand relative to shoulder
	Length float64 // tether length
}

func (h Hold) At(_ float64, shoulder r3.Vec) (r3.Vec, r3.Vec) {
	hand := r3.Add(shoulder, h.Reach)
	return hand, r3.Add(hand, r3.Vec{Y: -h.Length})
}

// Circle spins the poi around a still hand.
type Circle struct {
	Plane  Plane
	Reach  r3.Vec  // hand relative to shoulder
	Radius float64 // tether length
	Period float64 // seconds per revolution
	Phase  float64 // radians
}

func (c Circle) At(t float64, shoulder r3.Vec) (r3.Vec, r3.Vec) {
	hand := r3.Add(shoulder, c.Reach)
	return hand, c.Plane.point(hand, c.Radius, 2*math.Pi*t/c.Period+c.Phase)
}

// Extension spins the hand around the shoulder with the poi held straight
// out along the arm.
type Extension struct {
	Plane  Plane
	Arm    float64 // hand distance from shoulder
	Radius float64 // tether length
	Period float64
	Phase  float64
}

func (e Extension) At(t float64, shoulder r3.Vec) (r3.Vec, r3.Vec) {
	theta := 2*math.Pi*t/e.Period + e.Phase
	hand := e.Plane.point(shoulder, e.Arm, theta)
	return hand, e.Plane.point(hand, e.Radius, theta)
}

type segment struct {
	until  float64
	motion Motion // nil freezes the previous segment's last position
}

// Sequence plays motions one after another. Time inside each motion keeps
// counting from the start of the sequence so circles stay continuous.
type Sequence struct {
	segments []segment
	loop     bool
}

// NewSequence creates an empty Sequence. A looping sequence starts over
// after its last segment.
func NewSequence(loop bool) *Sequence {
	return &Sequence{loop: loop}
}

// Then appends m for the given number of seconds.
func (s *Sequence) Then(seconds float64, m Motion) *Sequence {
	s.segments = append(s.segments, segment{until: s.Duration() + seconds, motion: m})
	return s
}

// Freeze holds the last position of the previous motion for the given
// number of seconds.
func (s *Sequence) Freeze(seconds float64) *Sequence {
	return s.Then(seconds, nil)
}

// Duration returns the total length of the sequence in seconds.
func (s *Sequence) Duration() float64 {
	if len(s.segments) == 0 {
		return 0
	}
	return s.segments[len(s.segments)-1].until
}

func (s *Sequence) At(t float64, shoulder r3.Vec) (r3.Vec, r3.Vec) {
	if len(s.segments) == 0 {
		return Hold{}.At(t, shoulder)
	}
	if s.loop {
		t = math.Mod(t, s.Duration())
	}

	i := 0
	for i < len(s.segments)-1 && t >= s.segments[i].until {
		i++
	}

	// a frozen segment holds where the last moving segment ended
	for j := i; j >= 0; j-- {
		if m := s.segments[j].motion; m != nil {
			if j != i {
				t = s.segments[j].until
			}
			return m.At(t, shoulder)
		}
	}
	return Hold{}.At(t, shoulder)
}

// Rig is a performer standing still and facing +Z.
type Rig struct {
	Body          primitive.Body
	LeftShoulder  r3.Vec // relative to the body position
	RightShoulder r3.Vec
	Left, Right   Motion
	FrameTime     float64
	Limit         int           // frames before io.EOF, 0 for endless
	Interval      time.Duration // wall time between frames, 0 for as fast as possible

	frame  int
	ticker *time.Ticker
}

// NewRig creates a rig at the origin with both arms hanging still.
func NewRig() *Rig {
	return &Rig{
		Body:          primitive.Body{Position: r3.Vec{Y: 1.4}, Orientation: quat.Number{Real: 1}},
		LeftShoulder:  r3.Vec{X: -0.2, Y: 0.1},
		RightShoulder: r3.Vec{X: 0.2, Y: 0.1},
		Left:          Hold{Reach: r3.Vec{X: -0.3, Y: 0, Z: 0.3}, Length: 0.8},
		Right:         Hold{Reach: r3.Vec{X: 0.3, Y: 0, Z: 0.3}, Length: 0.8},
		FrameTime:     DefaultFrameTime,
	}
}

// Time returns the time of the next frame.
func (r *Rig) Time() float64 {
	return float64(r.frame) * r.FrameTime
}

// Frame returns the frame at index n without advancing the rig.
func (r *Rig) Frame(n int) app.Frame {
	t := float64(n) * r.FrameTime
	f := app.Frame{DeltaTime: r.FrameTime, Active: true, Body: r.Body}

	ls := r3.Add(r.Body.Position, r.LeftShoulder)
	lh, lp := r.Left.At(t, ls)
	f.Left = app.LimbSample{Shoulder: ls, Hand: lh, Poi: lp}

	rs := r3.Add(r.Body.Position, r.RightShoulder)
	rh, rp := r.Right.At(t, rs)
	f.Right = app.LimbSample{Shoulder: rs, Hand: rh, Poi: rp}

	return f
}

// Frames returns the next n frames and advances the rig past them.
func (r *Rig) Frames(n int) []app.Frame {
	frames := make([]app.Frame, n)
	for i := range frames {
		frames[i] = r.Frame(r.frame)
		r.frame++
	}
	return frames
}

// Next returns the next frame, waiting for Interval if one is set.
func (r *Rig) Next(ctx context.Context) (app.Frame, error) {
	if r.Limit > 0 && r.frame >= r.Limit {
		return app.Frame{}, io.EOF
	}

	if r.Interval > 0 {
		if r.ticker == nil {
			r.ticker = time.NewTicker(r.Interval)
		}
		select {
		case <-ctx.Done():
			return app.Frame{}, ctx.Err()
		case <-r.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return app.Frame{}, err
	}

	f := r.Frame(r.frame)
	r.frame++
	return f, nil
}

// Close stops the frame ticker.
func (r *Rig) Close() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

// Demo returns an endless paced rig: the left poi spins and stalls in a
// loop while the right arm alternates extensions and wall spins.
func Demo() *Rig {
	r := NewRig()
	r.Interval = time.Second / 60

	r.Left = NewSequence(true).
		Then(4, Circle{Plane: WallPlane, Reach: r3.Vec{X: -0.3, Z: 0.3}, Radius: 0.8, Period: 1}).
		Freeze(1)
	r.Right = NewSequence(true).
		Then(4, Extension{Plane: WallPlane, Arm: 0.6, Radius: 0.8, Period: 1.2}).
		Then(4, Circle{Plane: WallPlane, Reach: r3.Vec{X: 0.3, Z: 0.3}, Radius: 0.8, Period: 1})

	return r
}

// DoubleStall returns an unpaced rig that spins both poi in step for 4.5s and
// then holds them still for 2s, long enough for both arms to stall.
func DoubleStall() *Rig {
	r := NewRig()
	r.Left = NewSequence(false).
		Then(4.5, Circle{Plane: WallPlane, Reach: r3.Vec{X: -0.3, Z: 0.3}, Radius: 0.8, Period: 1}).
		Freeze(2)
	r.Right = NewSequence(false).
		Then(4.5, Circle{Plane: WallPlane, Reach: r3.Vec{X: 0.3, Z: 0.3}, Radius: 0.8, Period: 1}).
		Freeze(2)
	return r
}
