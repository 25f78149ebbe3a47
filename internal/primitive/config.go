package primitive

import "github.com/ayusman/poivr/internal/signal"

// Config holds the thresholds of the classifier. Distances are in metres
// and times in seconds.
type Config struct {
	MinCircleRadius          float64 // below this the motion is treated as linear
	CircleConfidence         float64 // poi confidence needed to be in a revolution
	ShoulderCircleConfidence float64 // hand around shoulder is less circular than poi
	DownDotEpsilon           float64 // width of the bottom of circle zone

	LinearStallSpeedEpsilon float64 // speed below which the poi is not moving
	MinStallTime            float64 // stillness needed before a stall fires
	MinNegativeStallTime    float64 // spinning needed before a stall can fire

	MinExtensionTime    float64
	ExtensionConfidence float64

	KernelVariance float64
	KernelWidth    int
}

// DefaultConfig returns the tuned thresholds.
func DefaultConfig() Config {
	return Config{
		MinCircleRadius:          0.1,
		CircleConfidence:         0.85,
		ShoulderCircleConfidence: 0.65,
		DownDotEpsilon:           0.33,
		LinearStallSpeedEpsilon:  4.5,
		MinStallTime:             0.1,
		MinNegativeStallTime:     1.5,
		MinExtensionTime:         0.5,
		ExtensionConfidence:      0.80,
		KernelVariance:           signal.DefaultKernelVariance,
		KernelWidth:              signal.DefaultKernelWidth,
	}
}
