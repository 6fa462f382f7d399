package scaling

import (
	"errors"
	"fmt"
)

// ErrInvalidSample is matched by every *InvalidSampleError.
var ErrInvalidSample = errors.New("invalid sample")

// InvalidSampleError reports an equivalence sample that cannot produce a
// finite ratio.
type InvalidSampleError struct {
	From      Game
	To        Game
	FromScore int
	ToScore   int
	Reason    string
}

func (e *InvalidSampleError) Error() string {
	return fmt.Sprintf("invalid sample %s (%d) -> %s (%d): %s",
		e.From, e.FromScore, e.To, e.ToScore, e.Reason)
}

func (e *InvalidSampleError) Unwrap() error { return ErrInvalidSample }

// UnknownGameError is returned by ParseGame for names outside AllGames.
type UnknownGameError struct {
	Name string
}

func (e *UnknownGameError) Error() string {
	return fmt.Sprintf("unknown game %q", e.Name)
}
