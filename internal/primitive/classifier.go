// Package primitive classifies the fitted motion of a poi and its arm into
// primitive gestures: revolutions, stalls and extensions.
package primitive

import (
	"log"
	"math"

	"github.com/ayusman/poivr/internal/gesture"
	"github.com/ayusman/poivr/internal/motion"
	"github.com/ayusman/poivr/internal/signal"
	"github.com/ayusman/poivr/internal/trick"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// down is the bottom of the circle in the fitted plane.
var down = r2.Vec{Y: -1}

// Body is the pose of the performer's chest. Orientation rotates body
// coordinates (x right, y up, z forward) into world coordinates.
type Body struct {
	Position    r3.Vec      `json:"position"`
	Orientation quat.Number `json:"orientation"`
}

// toBody rotates a world direction into body coordinates.
func (b Body) toBody(v r3.Vec) r3.Vec {
	q := b.Orientation
	if quat.Abs(q) == 0 {
		return v
	}
	q = quat.Scale(1/quat.Abs(q), q)

	p := quat.Mul(quat.Mul(quat.Conj(q), quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), q)
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// tracker follows one circle through the bottom of its path.
type tracker struct {
	active      bool
	initialExit bool
	direction   r3.Vec // plane when tracking started
	time        float64
	start       r3.Vec // spin location when tracking started
}

func (t *tracker) abort() {
	t.active = false
	t.initialExit = false
}

// step advances the tracker by one frame and reports whether a revolution
// was completed.
func (t *tracker) step(dt float64, snap motion.Snapshot, confident bool, cfg Config) bool {
	if t.active {
		t.time += dt

		flipped := r3.Dot(snap.Plane, t.direction) <= 0 || snap.LocalRadius < cfg.MinCircleRadius
		if flipped || !confident {
			t.abort()
		}
	}

	inZone := r2.Dot(motion.Unit2(snap.LocalDirection), down) > 1-cfg.DownDotEpsilon
	switch {
	case inZone && !t.active:
		t.active = true
		t.direction = snap.Plane
		t.time = 0
		t.start = snap.SpinLocation
	case inZone && t.initialExit:
		t.abort()
		return true
	case !inZone && t.active:
		t.initialExit = true
	}
	return false
}

// State is the latched state of a classifier after the last frame.
type State struct {
	Confidence          float64 `json:"confidence"`
	ShoulderConfidence  float64 `json:"shoulder_confidence"`
	ExtensionConfidence float64 `json:"extension_confidence"`
	InRevolution        bool    `json:"in_revolution"`
	InMotion            bool    `json:"in_motion"`
	InExtension         bool    `json:"in_extension"`
	Tracking            bool    `json:"tracking"`
	ShoulderTracking    bool    `json:"shoulder_tracking"`
	TimeInMotion        float64 `json:"time_in_motion"`
	TimeSinceMotion     float64 `json:"time_since_motion"`
	Angle               float64 `json:"angle"`  // poi angle in the fitted plane, radians
	Radius              float64 `json:"radius"` // poi distance from the fitted centre
}

// Classifier turns the motion of one limb into primitive gestures.
// Trick events for the primitives go to the sink; revolution and stall
// gestures are also handed to onGesture for the timelines.
type Classifier struct {
	cfg       Config
	limb      trick.Limb
	kernel    []float64
	sink      trick.Sink
	onGesture func(*gesture.Gesture)

	revolution tracker
	shoulder   tracker

	confidence          float64
	shoulderConfidence  float64
	extensionConfidence float64

	inRevolution bool
	inMotion     bool
	stallSwitch  bool

	inExtension       bool
	extensionDuration float64

	timeSinceMotion float64
	timeInMotion    float64

	angle, radius float64
}

// New creates a Classifier for limb. Either callback may be nil. A
// non-positive kernel variance or width uses the default kernel.
func New(cfg Config, limb trick.Limb, sink trick.Sink, onGesture func(*gesture.Gesture)) *Classifier {
	if cfg.KernelVariance <= 0 || cfg.KernelWidth <= 0 {
		cfg.KernelVariance = signal.DefaultKernelVariance
		cfg.KernelWidth = signal.DefaultKernelWidth
	}
	if sink == nil {
		sink = trick.Discard
	}
	if onGesture == nil {
		onGesture = func(*gesture.Gesture) {}
	}

	return &Classifier{
		cfg:       cfg,
		limb:      limb,
		kernel:    signal.GaussianKernel(cfg.KernelVariance, cfg.KernelWidth),
		sink:      sink,
		onGesture: onGesture,
	}
}

// State returns the classifier state after the last Evaluate.
func (c *Classifier) State() State {
	return State{
		Confidence:          c.confidence,
		ShoulderConfidence:  c.shoulderConfidence,
		ExtensionConfidence: c.extensionConfidence,
		InRevolution:        c.inRevolution,
		InMotion:            c.inMotion,
		InExtension:         c.inExtension,
		Tracking:            c.revolution.active,
		ShoulderTracking:    c.shoulder.active,
		TimeInMotion:        c.timeInMotion,
		TimeSinceMotion:     c.timeSinceMotion,
		Angle:               c.angle,
		Radius:              c.radius,
	}
}

// Reset clears every latch and timer.
func (c *Classifier) Reset() {
	cfg, limb, kernel, sink, onGesture := c.cfg, c.limb, c.kernel, c.sink, c.onGesture
	*c = Classifier{cfg: cfg, limb: limb, kernel: kernel, sink: sink, onGesture: onGesture}
}

// Evaluate classifies the current frame. poi holds the poi relative to the
// hand and shoulder holds the hand relative to the shoulder. Both buffers
// must already contain this frame's sample.
func (c *Classifier) Evaluate(dt float64, body Body, poi, shoulder *motion.Buffer) {
	c.confidence = 1 - signal.CircularError(poi.X(), poi.Y(), c.kernel)
	poi.SetConfidence(c.confidence)
	c.shoulderConfidence = 1 - signal.CircularError(shoulder.X(), shoulder.Y(), c.kernel)
	shoulder.SetConfidence(c.shoulderConfidence)

	snap := poi.Snapshot()
	c.angle, c.radius = snap.Angle, snap.LocalRadius

	c.evaluateRevolution(dt, body, snap)
	c.evaluateStall(dt, snap)
	c.evaluateExtension(dt, poi, shoulder)
	c.evaluateShoulder(dt, body, shoulder.Snapshot())
}

func (c *Classifier) evaluateRevolution(dt float64, body Body, snap motion.Snapshot) {
	confident := c.confidence >= c.cfg.CircleConfidence

	wasInRevolution := c.inRevolution
	c.inRevolution = confident && snap.LocalRadius > c.cfg.MinCircleRadius
	if !wasInRevolution && c.inRevolution {
		c.timeInMotion = 0
	}

	if !c.revolution.step(dt, snap, confident, c.cfg) {
		return
	}
	start, duration := c.revolution.start, c.revolution.time

	plane := body.toBody(snap.Plane)
	arm := body.toBody(motion.Unit(r3.Sub(start, body.Position)))
	spin := classifyPlane(plane)

	log.Printf("%s %s revolution completed in %.2fs", c.limb, spin, duration)

	c.sink.OnTrick(trick.Event{Kind: trick.KindRevolution, Limb: c.limb})
	c.onGesture(gesture.NewRevolution(duration, snap.Plane, spin, gesture.SystemPoi, spinPlane(spin, arm)))
}

// evaluateStall fires once when a confidently spinning poi stops dead after
// at least MinNegativeStallTime of fast revolution.
func (c *Classifier) evaluateStall(dt float64, snap motion.Snapshot) {
	confident := c.confidence >= c.cfg.CircleConfidence
	c.inMotion = r3.Norm(snap.Velocity) > c.cfg.LinearStallSpeedEpsilon

	if !confident || c.inMotion || c.inExtension {
		c.timeSinceMotion = 0

		// needs to be spinning again before the next stall
		if c.inRevolution && c.inMotion {
			c.timeInMotion += dt
			c.stallSwitch = false
		}
		return
	}

	c.timeSinceMotion += dt
	if c.stallSwitch || c.timeSinceMotion <= c.cfg.MinStallTime || c.timeInMotion <= c.cfg.MinNegativeStallTime {
		return
	}

	c.stallSwitch = true
	c.timeInMotion = 0

	direction := motion.Unit2(snap.LocalDirection)
	log.Printf("%s stall towards (%.2f, %.2f)", c.limb, direction.X, direction.Y)

	c.sink.OnTrick(trick.Event{Kind: trick.KindStall, Limb: c.limb})
	c.onGesture(gesture.NewStall(direction))
}

// evaluateExtension tracks the arm and poi pointing the same way, which
// makes the poi spin around the shoulder at full reach.
func (c *Classifier) evaluateExtension(dt float64, poi, shoulder *motion.Buffer) {
	n := min(poi.Len(), shoulder.Len())

	var e float64
	for i := 0; i < n; i++ {
		p := motion.Unit(poi.Direction(i))
		s := motion.Unit(shoulder.Direction(i))
		e += (r3.Dot(p, r3.Scale(-1, s)) + 1) / 2
	}
	c.extensionConfidence = 1 - e/float64(n)

	extended := c.extensionConfidence >= c.cfg.ExtensionConfidence
	if extended && c.inRevolution {
		c.inExtension = true
		c.extensionDuration += dt
	}

	if (!extended || !c.inRevolution) && c.inExtension {
		c.inExtension = false

		if c.extensionDuration > c.cfg.MinExtensionTime {
			log.Printf("%s extension held for %.2fs", c.limb, c.extensionDuration)
			c.sink.OnTrick(trick.Event{Kind: trick.KindExtension, Limb: c.limb})
		}
		c.extensionDuration = 0
	}
}

func (c *Classifier) evaluateShoulder(dt float64, body Body, snap motion.Snapshot) {
	confident := c.shoulderConfidence >= c.cfg.ShoulderCircleConfidence

	if !c.shoulder.step(dt, snap, confident, c.cfg) {
		return
	}
	duration := c.shoulder.time

	spin := classifyPlane(body.toBody(snap.Plane))
	log.Printf("%s %s shoulder revolution completed in %.2fs", c.limb, spin, duration)

	c.sink.OnTrick(trick.Event{Kind: trick.KindShoulderRevolution, Limb: c.limb})
	c.onGesture(gesture.NewRevolution(duration, snap.Plane, spin, gesture.SystemShoulder, 0))
}

// classifyPlane names the body axis a plane normal is closest to.
// A normal without a strictly dominant axis is undefined.
func classifyPlane(n r3.Vec) gesture.SpinDirection {
	x, y, z := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)

	switch {
	case z > x && z > y:
		return gesture.SpinWall
	case y > x && y > z:
		return gesture.SpinFloor
	case x > y && x > z:
		return gesture.SpinWheel
	default:
		return gesture.SpinUndefined
	}
}

// spinPlane returns which side of the body the arm spun on: left or right
// of the chest for wall planes and in front or behind it for wheel planes.
// Floor planes carry no side.
func spinPlane(spin gesture.SpinDirection, arm r3.Vec) int {
	switch spin {
	case gesture.SpinWall:
		return sign(arm.X)
	case gesture.SpinWheel:
		return sign(arm.Z)
	default:
		return 0
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
