package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/modules/model"
	"gorm.io/gorm"
)

type OrganizationRepo interface {
	Create(ctx context.Context, o *model.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	// IsMember reports whether the user belongs to the organization.
	IsMember(ctx context.Context, orgID uuid.UUID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, orgID uuid.UUID, userID uuid.UUID) error
	// ListForUser returns every organization the user is a member of.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error)
}

type organizationRepo struct{ db *gorm.DB }

func NewOrganizationRepo(db *gorm.DB) OrganizationRepo {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) Create(ctx context.Context, o *model.Organization) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *organizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var o model.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *organizationRepo) IsMember(ctx context.Context, orgID uuid.UUID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("organization_members").
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *organizationRepo) AddMember(ctx context.Context, orgID uuid.UUID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Organization{ID: orgID}).
		Association("Members").
		Append(&model.User{ID: userID})
}

func (r *organizationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error) {
	var orgs []model.Organization
	err := r.db.WithContext(ctx).
		Joins("JOIN organization_members om ON om.organization_id = organizations.id").
		Where("om.user_id = ?", userID).
		Find(&orgs).Error
	return orgs, err
}
