package scaling

import (
	"fmt"
	"math"
)

// Factor is a multiplicative conversion ratio between two games' scoring
// scales. It is either a Scalar, applied regardless of score, or a Bucketed
// triple selected by the score's bucket.
type Factor interface {
	// ForBucket returns the ratio to apply to scores in bucket b.
	ForBucket(b Bucket) float64
	String() string

	isFactor()
}

// Scalar is a single ratio used for every bucket.
type Scalar float64

func (s Scalar) ForBucket(Bucket) float64 { return float64(s) }

func (s Scalar) String() string { return fmt.Sprintf("%g", float64(s)) }

func (Scalar) isFactor() {}

// Bucketed holds one ratio per score bucket.
type Bucketed struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// Uniform returns a Bucketed with the same ratio in every bucket.
func Uniform(v float64) Bucketed {
	return Bucketed{Low: v, Mid: v, High: v}
}

func (f Bucketed) ForBucket(b Bucket) float64 {
	switch b {
	case BucketLow:
		return f.Low
	case BucketMid:
		return f.Mid
	default:
		return f.High
	}
}

func (f Bucketed) String() string {
	return fmt.Sprintf("%g/%g/%g", f.Low, f.Mid, f.High)
}

func (Bucketed) isFactor() {}

// FactorAt selects the ratio for score from f.
func FactorAt(f Factor, score int) float64 {
	return f.ForBucket(BucketFor(score))
}

// Apply multiplies score by factor, truncating toward negative infinity.
func Apply(score int, factor float64) int {
	return int(math.Floor(float64(score) * factor))
}
