package trick

import (
	"log"
	"math"

	"github.com/ayusman/poivr/internal/gesture"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the timing tolerances of the compound tricks.
type Config struct {
	// FlowerTimeEpsilon is the allowed offset in seconds between the start
	// and end of the shoulder revolution and the three poi revolutions.
	FlowerTimeEpsilon float64
	// Weave3BeatUnsyncEpsilon is the allowed deviation from a half spin
	// offset between the two poi, as a fraction of a spin.
	Weave3BeatUnsyncEpsilon float64
	// DoubleStallTimeEpsilon is the allowed time in seconds between the
	// two stalls of a double stall.
	DoubleStallTimeEpsilon float64
}

// DefaultConfig returns the tuned tolerances.
func DefaultConfig() Config {
	return Config{
		FlowerTimeEpsilon:       0.25,
		Weave3BeatUnsyncEpsilon: 0.15,
		DoubleStallTimeEpsilon:  0.25,
	}
}

// revolutionsPerTrick is the number of poi revolutions making up a flower
// and each side of a three beat weave.
const revolutionsPerTrick = 3

// spinPlane patterns of a three beat weave, newest revolution first.
var (
	weaveLeft  = [][revolutionsPerTrick]int{{-1, 1, 1}, {1, -1, 1}, {1, 1, -1}}
	weaveRight = [][revolutionsPerTrick]int{{1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}
)

// Recognizer finds compound tricks at the tail of gesture timelines.
// Every gesture that takes part in a trick is flagged so the same gestures
// never produce the trick twice.
type Recognizer struct {
	cfg  Config
	sink Sink
}

// NewRecognizer creates a Recognizer publishing to sink. A nil sink drops
// events; they are still returned from Scan.
func NewRecognizer(cfg Config, sink Sink) *Recognizer {
	if sink == nil {
		sink = Discard
	}
	return &Recognizer{cfg: cfg, sink: sink}
}

// Scan runs every detector over set and publishes what it finds.
// Detectors run in a fixed order: flower left, flower right, three beat
// weave, double stall.
func (r *Recognizer) Scan(set *gesture.Set) []Event {
	var events []Event

	found := func(e Event, ok bool) {
		if !ok {
			return
		}
		log.Printf("Trick recognized: %s", e)
		events = append(events, e)
		r.sink.OnTrick(e)
	}

	found(r.Flower(gesture.Left, set.LeftPoi, set.LeftShoulder))
	found(r.Flower(gesture.Right, set.RightPoi, set.RightShoulder))
	found(r.Weave3(set.LeftPoi, set.RightPoi))
	found(r.DoubleStall(set.LeftPoi, set.RightPoi))

	return events
}

// Flower detects one shoulder revolution performed together with three poi
// revolutions on the same side.
//
// Algorithm:
// 1. Walk the shoulder timeline back over rests to its latest revolution
// 2. Walk the poi timeline back collecting three revolutions
// 3. Compare when both started and ended
// 4. Require every poi revolution to face the same way and share the
// shoulder's spin direction
// 5. Tell flower from anti-flower by the side the poi plane faces
func (r *Recognizer) Flower(side gesture.Side, poi, shoulder *gesture.Timeline) (Event, bool) {
	if poi.Len() < revolutionsPerTrick || shoulder.Len() < 1 {
		return Event{}, false
	}

	// shoulderDelay: rest after the shoulder revolution;
	// shoulderEnd: time since it started
	var shoulderDelay, shoulderEnd float64
	var sh *gesture.Gesture

walkShoulder:
	for i := shoulder.Len() - 1; i >= 0; i-- {
		g := shoulder.At(i)
		switch g.Type {
		case gesture.TypeRest:
			shoulderDelay += g.Duration
		case gesture.TypeRevolution:
			sh = g
			shoulderEnd = shoulderDelay + g.Duration
			break walkShoulder
		default:
			return Event{}, false
		}
	}

	if sh == nil || sh.Claimed(gesture.FlagFlower) {
		return Event{}, false
	}

	var regularDelay, regularEnd float64
	revs := make([]*gesture.Gesture, 0, revolutionsPerTrick)

	for i := poi.Len() - 1; i >= 0 && len(revs) < revolutionsPerTrick; i-- {
		g := poi.At(i)
		switch g.Type {
		case gesture.TypeRest:
			if len(revs) == 0 {
				regularDelay += g.Duration
			}
		case gesture.TypeRevolution:
			revs = append(revs, g)
		default:
			return Event{}, false
		}
		regularEnd += g.Duration
	}

	if len(revs) < revolutionsPerTrick {
		return Event{}, false
	}

	eps := r.cfg.FlowerTimeEpsilon
	if math.Abs(regularDelay-shoulderDelay) > eps || math.Abs(regularEnd-shoulderEnd) > eps {
		return Event{}, false
	}

	var planeSum r3.Vec
	for _, g := range revs {
		if r3.Dot(g.Normal, planeSum) < 0 || g.SpinDirection != sh.SpinDirection {
			return Event{}, false
		}
		planeSum = r3.Add(planeSum, g.Normal)
	}

	sh.Mark(gesture.FlagFlower)
	for _, g := range revs {
		g.Mark(gesture.FlagFlower)
	}

	// the gestures stay claimed even when the planes give no handedness
	var variant Variant
	switch dot := r3.Dot(planeSum, sh.Normal); {
	case dot > 0:
		variant = VariantAntiFlower
	case dot < 0:
		variant = VariantFlower
	default:
		return Event{}, false
	}

	return Event{Kind: KindFlower, Variant: variant, Limb: LimbOf(side)}, true
}

// weaveSide is the latest three revolutions of one poi.
type weaveSide struct {
	revs  []*gesture.Gesture
	delay float64 // rest since the newest revolution
	time  float64 // time since the oldest revolution started
}

// collectWeave walks tl back to its third revolution. It fails on a stall,
// a revolution already counted in a weave or too few revolutions.
func collectWeave(tl *gesture.Timeline) (weaveSide, bool) {
	side := weaveSide{revs: make([]*gesture.Gesture, 0, revolutionsPerTrick)}

	for i := tl.Len() - 1; i >= 0 && len(side.revs) < revolutionsPerTrick; i-- {
		g := tl.At(i)
		side.time += g.Duration

		switch g.Type {
		case gesture.TypeRevolution:
			if g.Claimed(gesture.FlagWeave3) {
				return side, false
			}
			side.revs = append(side.revs, g)
		case gesture.TypeRest:
			if len(side.revs) == 0 {
				side.delay += g.Duration
			}
		default:
			return side, false
		}
	}

	return side, len(side.revs) == revolutionsPerTrick
}

func (s weaveSide) matches(templates [][revolutionsPerTrick]int) bool {
	for _, tmpl := range templates {
		ok := true
		for i, g := range s.revs {
			if g.SpinPlane != tmpl[i] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Weave3 detects a three beat weave: each poi spins once on one side of the
// body and twice on the other, half a spin out of step with the other poi.
func (r *Recognizer) Weave3(left, right *gesture.Timeline) (Event, bool) {
	if left.Len() < revolutionsPerTrick || right.Len() < revolutionsPerTrick {
		return Event{}, false
	}

	l, ok := collectWeave(left)
	if !ok {
		return Event{}, false
	}
	rt, ok := collectWeave(right)
	if !ok {
		return Event{}, false
	}

	if !l.matches(weaveLeft) || !rt.matches(weaveRight) {
		return Event{}, false
	}

	// half the combined spinning time over three spins
	spinAverage := ((l.time - l.delay) + (rt.time - rt.delay)) / (2 * revolutionsPerTrick)
	if spinAverage <= 0 {
		return Event{}, false
	}

	unsync := math.Abs(l.delay-rt.delay)/spinAverage - 0.5
	if math.Abs(unsync) > r.cfg.Weave3BeatUnsyncEpsilon {
		return Event{}, false
	}

	for _, g := range l.revs {
		g.Mark(gesture.FlagWeave3)
	}
	for _, g := range rt.revs {
		g.Mark(gesture.FlagWeave3)
	}

	return Event{Kind: KindWeave3, Limb: LimbBoth}, true
}

// latestStall returns the stall at the tail of tl, allowing at most one rest
// after it, and the length of that rest.
func latestStall(tl *gesture.Timeline) (*gesture.Gesture, float64) {
	i := tl.Len() - 1
	var delay float64

	if g := tl.At(i); g != nil && g.Type == gesture.TypeRest {
		delay = g.Duration
		i--
	}

	if g := tl.At(i); g != nil && g.Type == gesture.TypeStall {
		return g, delay
	}
	return nil, 0
}

// DoubleStall detects both poi stalling at the same moment.
func (r *Recognizer) DoubleStall(left, right *gesture.Timeline) (Event, bool) {
	ls, ld := latestStall(left)
	rs, rd := latestStall(right)

	if ls == nil || rs == nil {
		return Event{}, false
	}
	if ls.Claimed(gesture.FlagDoubleStall) || rs.Claimed(gesture.FlagDoubleStall) {
		return Event{}, false
	}
	if math.Abs(ld-rd) > r.cfg.DoubleStallTimeEpsilon {
		return Event{}, false
	}

	ls.Mark(gesture.FlagDoubleStall)
	rs.Mark(gesture.FlagDoubleStall)

	return Event{Kind: KindDoubleStall, Limb: LimbBoth}, true
}
