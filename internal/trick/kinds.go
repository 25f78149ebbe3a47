// Package trick defines trick events and recognizes compound tricks from the
// gesture timelines of both limbs.
package trick

import (
	"fmt"

	"github.com/ayusman/poivr/internal/gesture"
)

// Kind identifies a trick.
type Kind int

const (
	KindRevolution Kind = iota
	KindStall
	KindExtension
	KindShoulderRevolution
	KindFlower
	KindWeave3
	KindDoubleStall
)

var kindNames = [...]string{
	KindRevolution:         "REVOLUTION",
	KindStall:              "STALL",
	KindExtension:          "EXTENSION",
	KindShoulderRevolution: "SHOULDER_REVOLUTION",
	KindFlower:             "FLOWER",
	KindWeave3:             "WEAVE3",
	KindDoubleStall:        "DOUBLE_STALL",
}

// Kinds returns every trick kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// String returns the upper case name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown trick kind %q", name)
}

// Compound reports whether the kind is built from several gestures.
func (k Kind) Compound() bool {
	return k == KindFlower || k == KindWeave3 || k == KindDoubleStall
}

// MarshalText encodes the kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Variant refines a trick kind.
type Variant string

const (
	VariantNone       Variant = ""
	VariantFlower     Variant = "flower"
	VariantAntiFlower Variant = "anti_flower"
)

// Limb is the side a trick was performed with.
type Limb string

const (
	LimbLeft  Limb = "left"
	LimbRight Limb = "right"
	LimbBoth  Limb = "both"
)

// LimbOf returns the limb of a single side.
func LimbOf(side gesture.Side) Limb {
	if side == gesture.Right {
		return LimbRight
	}
	return LimbLeft
}

// Event is a single recognized trick.
type Event struct {
	Kind    Kind    `json:"kind"`
	Variant Variant `json:"variant,omitempty"`
	Limb    Limb    `json:"limb"`
}

// String returns a short human readable description.
func (e Event) String() string {
	if e.Variant != VariantNone {
		return fmt.Sprintf("%s/%s (%s)", e.Kind, e.Variant, e.Limb)
	}
	return fmt.Sprintf("%s (%s)", e.Kind, e.Limb)
}
