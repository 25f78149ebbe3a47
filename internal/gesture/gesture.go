// Package gesture provides the primitive gesture records produced by the
// classifier and the rolling per-limb timeline they are collected in.
package gesture

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Type represents the kind of a primitive gesture.
type Type string

const (
	// TypeRest fills the time in which no primitive was detected.
	TypeRest Type = "rest"
	// TypeRevolution represents one full circular pass of a tracked point.
	TypeRevolution Type = "revolution"
	// TypeStall represents an abrupt stop after sustained circular motion.
	TypeStall Type = "stall"
)

// SpinDirection is the dominant plane of a revolution relative to the body.
type SpinDirection string

const (
	SpinUndefined SpinDirection = "undefined"
	SpinWall      SpinDirection = "wall"  // normal along the body's forward axis
	SpinFloor     SpinDirection = "floor" // normal along the body's up axis
	SpinWheel     SpinDirection = "wheel" // normal along the body's lateral axis
)

// System identifies which tracked pair produced a revolution.
type System string

const (
	// SystemPoi is the prop head circling the hand.
	SystemPoi System = "poi"
	// SystemShoulder is the hand circling the shoulder.
	SystemShoulder System = "shoulder"
)

// Flag records which compound tricks have consumed a gesture.
type Flag uint16

const (
	FlagFlower      Flag = 0x0001
	FlagWeave3      Flag = 0x0002
	FlagDoubleStall Flag = 0x0008
)

// Has reports whether every bit of f is set.
func (s Flag) Has(f Flag) bool {
	return s&f == f
}

// Set adds the bits of f.
func (s *Flag) Set(f Flag) {
	*s |= f
}

// Gesture is a single entry of a timeline. Fields beyond Type, Duration and
// Examined are only meaningful for the matching Type, the same way a
// template carries either landmarks or a path.
type Gesture struct {
	Type     Type    `json:"type"`
	Duration float64 `json:"duration"` // seconds
	Examined Flag    `json:"examined"`

	// Revolution fields
	Normal        r3.Vec        `json:"normal"`
	SpinDirection SpinDirection `json:"spin_direction,omitempty"`
	System        System        `json:"system,omitempty"`
	SpinPlane     int           `json:"spin_plane"` // -1, 0 or 1

	// Stall fields
	Direction r2.Vec `json:"direction"`
}

// NewRest creates a rest gesture of the given duration.
func NewRest(duration float64) *Gesture {
	return &Gesture{Type: TypeRest, Duration: duration}
}

// NewRevolution creates a revolution gesture.
func NewRevolution(duration float64, normal r3.Vec, spin SpinDirection, system System, spinPlane int) *Gesture {
	return &Gesture{
		Type:          TypeRevolution,
		Duration:      duration,
		Normal:        normal,
		SpinDirection: spin,
		System:        system,
		SpinPlane:     spinPlane,
	}
}

// NewStall creates a stall gesture facing direction.
func NewStall(direction r2.Vec) *Gesture {
	return &Gesture{Type: TypeStall, Direction: direction}
}

// Mark sets f on the gesture.
func (g *Gesture) Mark(f Flag) {
	g.Examined.Set(f)
}

// Claimed reports whether the gesture was already consumed by trick f.
func (g *Gesture) Claimed(f Flag) bool {
	return g.Examined&f != 0
}
