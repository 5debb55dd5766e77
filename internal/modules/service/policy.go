package service

import (
	"github.com/openplans/planbox/internal/modules/model"
)

// Operation classifies a request for authorization purposes. Reads are
// GET-shaped; everything that mutates is a write.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
)

// Authorize decides whether a principal may perform op on a project,
// given whether the principal owns it and whether it is public.
//
// The rules, checked in order:
//
//  1. a nil principal (no request identity at all) is always refused
//  2. owners may do anything to their own projects
//  3. non-owners never learn that a private project exists: any access
//     to one yields ErrNotFound, not ErrForbidden
//  4. public projects are readable by anyone, including anonymous
//  5. writes to someone else's public project are refused with
//     ErrForbidden; no authentication challenge is implied, since
//     logging in would not help
func Authorize(p *model.Principal, owns bool, public bool, op Operation) error {
	if p == nil {
		return ErrForbidden
	}
	if owns {
		return nil
	}
	if !public {
		return ErrNotFound
	}
	if op == OpRead {
		return nil
	}
	return ErrForbidden
}
