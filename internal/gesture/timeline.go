package gesture

// DefaultHorizon is the span of time, in seconds, a Timeline remembers.
const DefaultHorizon = 10.0

// Timeline is the rolling sequence of gestures for one limb and system.
// The newest gesture is at the end.
//
// Invariants:
//   - two rests are never adjacent
//   - the summed duration never exceeds the horizon by more than one frame
type Timeline struct {
	horizon  float64
	gestures []*Gesture
}

// NewTimeline creates an empty Timeline. A non-positive horizon uses
// DefaultHorizon.
func NewTimeline(horizon float64) *Timeline {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	return &Timeline{
		horizon:  horizon,
		gestures: make([]*Gesture, 0, 16),
	}
}

// Horizon returns the remembered span of time in seconds.
func (t *Timeline) Horizon() float64 {
	return t.horizon
}

// Len returns the number of gestures in the timeline.
func (t *Timeline) Len() int {
	return len(t.gestures)
}

// At returns gesture i, where 0 is the oldest. It returns nil out of range.
func (t *Timeline) At(i int) *Gesture {
	if i < 0 || i >= len(t.gestures) {
		return nil
	}
	return t.gestures[i]
}

// Last returns the newest gesture, or nil if the timeline is empty.
func (t *Timeline) Last() *Gesture {
	return t.At(len(t.gestures) - 1)
}

// Total returns the summed duration of every gesture.
func (t *Timeline) Total() float64 {
	var total float64
	for _, g := range t.gestures {
		total += g.Duration
	}
	return total
}

// Gestures returns a copy of the gesture values, oldest first.
func (t *Timeline) Gestures() []Gesture {
	out := make([]Gesture, len(t.gestures))
	for i, g := range t.gestures {
		out[i] = *g
	}
	return out
}

// Reset removes every gesture.
func (t *Timeline) Reset() {
	clear(t.gestures)
	t.gestures = t.gestures[:0]
}

// Advance moves the timeline forward by dt seconds. The trailing rest grows,
// or a new rest is started, and gestures that no longer fit in the horizon
// are dropped from the front.
func (t *Timeline) Advance(dt float64) {
	if dt < 0 {
		dt = 0
	}

	if last := t.Last(); last != nil && last.Type == TypeRest {
		last.Duration += dt
	} else {
		t.gestures = append(t.gestures, NewRest(dt))
	}

	t.evict()
}

// Append adds g to the end of the timeline.
//
// Gestures are reported once they are complete, so a trailing rest already
// covers their time. That rest gives up g's duration and is removed if
// nothing is left of it. A rest appended after a rest is merged into it.
func (t *Timeline) Append(g *Gesture) {
	if g == nil {
		return
	}

	last := t.Last()
	if last == nil || last.Type != TypeRest {
		t.gestures = append(t.gestures, g)
		t.evict()
		return
	}

	if g.Type == TypeRest {
		last.Duration += g.Duration
		t.evict()
		return
	}

	last.Duration -= g.Duration
	if last.Duration <= 0 {
		t.gestures[len(t.gestures)-1] = nil
		t.gestures = t.gestures[:len(t.gestures)-1]
	}
	t.gestures = append(t.gestures, g)

	// g may be longer than the rest it replaced
	t.evict()
}

// evict drops every gesture older than the one that crosses the horizon,
// counting back from the newest.
func (t *Timeline) evict() {
	var total float64
	for i := len(t.gestures) - 1; i >= 0; i-- {
		total += t.gestures[i].Duration
		if total > t.horizon {
			n := copy(t.gestures, t.gestures[i+1:])
			clear(t.gestures[n:])
			t.gestures = t.gestures[:n]
			return
		}
	}
}
