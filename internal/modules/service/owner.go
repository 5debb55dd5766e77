package service

import (
	"context"
	"errors"

	"github.com/openplans/planbox/internal/modules/model"
	"github.com/openplans/planbox/internal/modules/repo"
	"gorm.io/gorm"
)

// OwnerService answers ownership questions across the two owner kinds.
// A user owns their own projects directly; organization projects are
// owned by every member.
type OwnerService interface {
	// Exists reports whether the referenced owner is a real user or
	// organization.
	Exists(ctx context.Context, ref model.OwnerRef) (bool, error)
	// Owns reports whether the principal acts for the referenced owner.
	Owns(ctx context.Context, p *model.Principal, ref model.OwnerRef) (bool, error)
	// RefsFor returns every owner ref the principal acts for: their own
	// user ref plus one per organization membership.
	RefsFor(ctx context.Context, p *model.Principal) ([]model.OwnerRef, error)
}

type ownerService struct {
	users repo.UserRepo
	orgs  repo.OrganizationRepo
}

func NewOwnerService(users repo.UserRepo, orgs repo.OrganizationRepo) OwnerService {
	return &ownerService{users: users, orgs: orgs}
}

func (s *ownerService) Exists(ctx context.Context, ref model.OwnerRef) (bool, error) {
	if !ref.Valid() {
		return false, nil
	}
	var err error
	switch ref.Kind {
	case model.OwnerTypeUser:
		_, err = s.users.GetByID(ctx, ref.ID)
	case model.OwnerTypeOrganization:
		_, err = s.orgs.GetByID(ctx, ref.ID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *ownerService) Owns(ctx context.Context, p *model.Principal, ref model.OwnerRef) (bool, error) {
	if !p.Authenticated() {
		return false, nil
	}
	switch ref.Kind {
	case model.OwnerTypeUser:
		return p.User.ID == ref.ID, nil
	case model.OwnerTypeOrganization:
		return s.orgs.IsMember(ctx, ref.ID, p.User.ID)
	}
	return false, nil
}

func (s *ownerService) RefsFor(ctx context.Context, p *model.Principal) ([]model.OwnerRef, error) {
	if !p.Authenticated() {
		return nil, nil
	}
	refs := []model.OwnerRef{{Kind: model.OwnerTypeUser, ID: p.User.ID}}
	orgs, err := s.orgs.ListForUser(ctx, p.User.ID)
	if err != nil {
		return nil, err
	}
	for _, o := range orgs {
		refs = append(refs, model.OwnerRef{Kind: model.OwnerTypeOrganization, ID: o.ID})
	}
	return refs, nil
}
