// Package app wires the recognition pipeline together: motion buffers and a
// classifier for each arm, the gesture timelines and the trick recognizer.
package app

import (
	"log"
	"sync"

	"github.com/ayusman/poivr/internal/config"
	"github.com/ayusman/poivr/internal/gesture"
	"github.com/ayusman/poivr/internal/motion"
	"github.com/ayusman/poivr/internal/primitive"
	"github.com/ayusman/poivr/internal/trick"
	"gonum.org/v1/gonum/spatial/r3"
)

// LimbSample is the tracked positions of one arm in world space.
type LimbSample struct {
	Shoulder r3.Vec `json:"shoulder"`
	Hand     r3.Vec `json:"hand"`
	Poi      r3.Vec `json:"poi"`
}

// Frame is everything the pipeline needs for one step.
type Frame struct {
	DeltaTime float64        `json:"dt"`     // seconds since the previous frame
	Active    bool           `json:"active"` // false while play is paused
	Body      primitive.Body `json:"body"`
	Left      LimbSample     `json:"left"`
	Right     LimbSample     `json:"right"`
}

// Sample returns the sample of side.
func (f Frame) Sample(side gesture.Side) LimbSample {
	if side == gesture.Right {
		return f.Right
	}
	return f.Left
}

// limb holds the per arm recognition state.
type limb struct {
	side       gesture.Side
	poi        *motion.Buffer // poi relative to hand
	shoulder   *motion.Buffer // hand relative to shoulder
	classifier *primitive.Classifier
}

// Timelines is a copy of the four gesture timelines.
type Timelines struct {
	LeftPoi       []gesture.Gesture `json:"left_poi"`
	RightPoi      []gesture.Gesture `json:"right_poi"`
	LeftShoulder  []gesture.Gesture `json:"left_shoulder"`
	RightShoulder []gesture.Gesture `json:"right_shoulder"`
}

// App runs the recognition pipeline one frame at a time.
type App struct {
	cfg config.Recognition

	// tickMu serialises frames; mu guards the enabled flag and the loop
	tickMu     sync.Mutex
	limbs      [2]*limb
	timelines  *gesture.Set
	recognizer *trick.Recognizer
	pending    []trick.Event

	bus *trick.Bus

	mu      sync.RWMutex
	enabled bool
	cancel  func()
	done    chan struct{}
}

// New creates an App with the given recognition settings. Recognition is
// enabled from the start.
func New(cfg config.Recognition) *App {
	a := &App{
		cfg:       cfg,
		timelines: gesture.NewSet(cfg.Horizon),
		bus:       trick.NewBus(),
		enabled:   true,
	}

	collect := trick.SinkFunc(func(e trick.Event) {
		a.pending = append(a.pending, e)
	})

	for _, side := range []gesture.Side{gesture.Left, gesture.Right} {
		a.limbs[side] = &limb{
			side:     side,
			poi:      motion.New(cfg.BufferSize),
			shoulder: motion.New(cfg.BufferSize),
			classifier: primitive.New(cfg.Primitive, trick.LimbOf(side), collect, func(g *gesture.Gesture) {
				a.timelines.Route(side, g)
			}),
		}
	}
	a.recognizer = trick.NewRecognizer(cfg.Tricks, collect)

	return a
}

// Subscribe registers s for every trick event. Subscribers are called in
// the order they subscribed, after the frame that produced the event.
func (a *App) Subscribe(s trick.Sink) {
	a.bus.Subscribe(s)
}

// SetEnabled enables or disables recognition.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled != enabled {
		log.Printf("Recognition enabled: %v", enabled)
	}
	a.enabled = enabled
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Tick runs one frame through the pipeline and returns the tricks it
// produced, primitives first. Inactive frames and a disabled app leave all
// state untouched.
//
// Pipeline order:
// 1. Push each arm's samples into its motion buffers
// 2. Advance every timeline by the frame time
// 3. Classify each arm, appending new gestures to the timelines
// 4. Scan the timelines for compound tricks
func (a *App) Tick(f Frame) []trick.Event {
	if !f.Active || !a.IsEnabled() {
		return nil
	}

	a.tickMu.Lock()
	dt := f.DeltaTime
	for _, l := range a.limbs {
		s := f.Sample(l.side)
		l.poi.Push(s.Poi, s.Hand, dt)
		l.shoulder.Push(s.Hand, s.Shoulder, dt)
	}

	a.timelines.AdvanceAll(dt)

	for _, l := range a.limbs {
		l.classifier.Evaluate(dt, f.Body, l.poi, l.shoulder)
	}
	a.recognizer.Scan(a.timelines)

	events := a.pending
	a.pending = nil
	a.tickMu.Unlock()

	for _, e := range events {
		a.bus.OnTrick(e)
	}
	return events
}

// Timelines returns a copy of the gesture timelines.
func (a *App) Timelines() Timelines {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()

	return Timelines{
		LeftPoi:       a.timelines.LeftPoi.Gestures(),
		RightPoi:      a.timelines.RightPoi.Gestures(),
		LeftShoulder:  a.timelines.LeftShoulder.Gestures(),
		RightShoulder: a.timelines.RightShoulder.Gestures(),
	}
}

// States returns the classifier state of the left and right arm.
func (a *App) States() (left, right primitive.State) {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	return a.limbs[gesture.Left].classifier.State(), a.limbs[gesture.Right].classifier.State()
}

// Reset clears every buffer, timeline and classifier.
func (a *App) Reset() {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()

	for _, l := range a.limbs {
		l.poi.Reset()
		l.shoulder.Reset()
		l.classifier.Reset()
	}
	a.timelines.Reset()
	a.pending = nil
}
