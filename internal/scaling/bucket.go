package scaling

// Bucket boundaries. Intervals are half-open: [0, LowMidBoundary),
// [LowMidBoundary, MidHighBoundary), [MidHighBoundary, ∞).
const (
	LowMidBoundary  = 100000
	MidHighBoundary = 500000
)

// Bucket is a score-magnitude range with its own conversion factor.
type Bucket int

const (
	BucketLow Bucket = iota
	BucketMid
	BucketHigh
)

// AllBuckets returns the buckets in ascending score order.
func AllBuckets() []Bucket {
	return []Bucket{BucketLow, BucketMid, BucketHigh}
}

// BucketFor returns the bucket a score falls into.
func BucketFor(score int) Bucket {
	switch {
	case score < LowMidBoundary:
		return BucketLow
	case score < MidHighBoundary:
		return BucketMid
	default:
		return BucketHigh
	}
}

func (b Bucket) String() string {
	switch b {
	case BucketLow:
		return "low"
	case BucketMid:
		return "mid"
	case BucketHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Range returns a short label for the bucket's score range.
func (b Bucket) Range() string {
	switch b {
	case BucketLow:
		return "<100k"
	case BucketMid:
		return "100k-500k"
	default:
		return ">=500k"
	}
}
