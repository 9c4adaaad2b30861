// Package access holds the single ownership check applied to every
// owner-scoped mutation.
package access

import "errors"

// ErrForbidden indicates the actor does not own the resource.
var ErrForbidden = errors.New("forbidden")

// Owned is implemented by resources that belong to exactly one user.
type Owned interface {
	Owner() string
}

// Authorize returns ErrForbidden unless actor owns r.
func Authorize(actor string, r Owned) error {
	if actor == "" || r == nil || r.Owner() != actor {
		return ErrForbidden
	}
	return nil
}
