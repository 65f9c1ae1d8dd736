package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrRemote       = errors.New("remote error")
)

// Transient reports whether err is worth retrying later (network failure,
// timeout, 5xx, 429).
func Transient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
