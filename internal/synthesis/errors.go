package synthesis

import (
	"errors"
	"fmt"
)

// Failure taxonomy for one synthesis invocation. Every stage fails fast;
// the top-level caller matches with errors.Is and surfaces the message.
var (
	ErrNotFound = errors.New("not found")
	ErrUpstream = errors.New("upstream model error")
	ErrParse    = errors.New("parse error")
	ErrStorage  = errors.New("storage error")
)

func tag(sentinel error, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}
