package gesture

// Side selects the left or right limb.
type Side int

const (
	Left Side = iota
	Right
)

// String returns the lowercase name of the side.
func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Set holds the four timelines of a performer: a poi and a shoulder
// timeline for each side.
type Set struct {
	LeftPoi       *Timeline
	RightPoi      *Timeline
	LeftShoulder  *Timeline
	RightShoulder *Timeline
}

// NewSet creates four empty timelines with the same horizon.
func NewSet(horizon float64) *Set {
	return &Set{
		LeftPoi:       NewTimeline(horizon),
		RightPoi:      NewTimeline(horizon),
		LeftShoulder:  NewTimeline(horizon),
		RightShoulder: NewTimeline(horizon),
	}
}

// Poi returns the poi timeline of side.
func (s *Set) Poi(side Side) *Timeline {
	if side == Right {
		return s.RightPoi
	}
	return s.LeftPoi
}

// Shoulder returns the shoulder timeline of side.
func (s *Set) Shoulder(side Side) *Timeline {
	if side == Right {
		return s.RightShoulder
	}
	return s.LeftShoulder
}

// Route appends g to the timeline it belongs to. Shoulder revolutions go to
// the shoulder timeline, everything else to the poi timeline.
func (s *Set) Route(side Side, g *Gesture) {
	if g == nil {
		return
	}

	if g.Type == TypeRevolution && g.System == SystemShoulder {
		s.Shoulder(side).Append(g)
		return
	}
	s.Poi(side).Append(g)
}

// AdvanceAll moves every timeline forward by dt seconds.
func (s *Set) AdvanceAll(dt float64) {
	for _, t := range s.all() {
		t.Advance(dt)
	}
}

// Reset empties every timeline.
func (s *Set) Reset() {
	for _, t := range s.all() {
		t.Reset()
	}
}

func (s *Set) all() []*Timeline {
	return []*Timeline{s.LeftPoi, s.RightPoi, s.LeftShoulder, s.RightShoulder}
}
