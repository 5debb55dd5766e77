package model

import "github.com/google/uuid"

// OwnerType discriminates the polymorphic project owner.
type OwnerType = string

const (
	OwnerTypeUser         OwnerType = "user"
	OwnerTypeOrganization OwnerType = "organization"
)

// OwnerRef is the tagged (kind, id) reference a Project carries to its
// owner. The referenced row lives in the users or organizations table
// depending on Kind and is resolved through the matching repository.
type OwnerRef struct {
	Kind OwnerType `json:"owner_type"`
	ID   uuid.UUID `json:"owner_id"`
}

// Valid reports whether the ref names a known owner kind and a non-nil id.
func (o OwnerRef) Valid() bool {
	return (o.Kind == OwnerTypeUser || o.Kind == OwnerTypeOrganization) && o.ID != uuid.Nil
}
