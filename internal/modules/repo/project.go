package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/modules/model"
	"gorm.io/gorm"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *model.Project) error
	// GetByID loads a project with its events ordered by index.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	SlugExists(ctx context.Context, ownerType model.OwnerType, ownerID uuid.UUID, slug string) (bool, error)
	// ListVisibleWithCursor returns public projects plus any project
	// owned by one of the given owner refs.
	ListVisibleWithCursor(ctx context.Context, owners []model.OwnerRef, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Project, error)
	// UpdateWithTimeline applies scalar field changes and a timeline
	// edit plan in a single transaction. Upserted events carry their
	// final index; events with a nil ID are inserted, the rest updated.
	UpdateWithTimeline(ctx context.Context, projectID uuid.UUID, fields map[string]interface{}, upserts []*model.Event, deleteIDs []uuid.UUID) error
	Delete(ctx context.Context, p *model.Project) error
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepo(db *gorm.DB) ProjectRepo {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"index" ASC`)
		}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) SlugExists(ctx context.Context, ownerType model.OwnerType, ownerID uuid.UUID, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("owner_type = ? AND owner_id = ? AND slug = ?", ownerType, ownerID, slug).
		Count(&count).Error
	return count > 0, err
}

func (r *projectRepo) ListVisibleWithCursor(ctx context.Context, owners []model.OwnerRef, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Project, error) {
	visible := r.db.Where("public = ?", true)
	for _, o := range owners {
		visible = visible.Or("owner_type = ? AND owner_id = ?", o.Kind, o.ID)
	}
	q := r.db.WithContext(ctx).Where(visible)

	// Apply cursor-based pagination filter if cursor is provided
	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		comparisonOp := ">"
		if timeDesc {
			comparisonOp = "<"
		}
		q = q.Where(
			"(created_at "+comparisonOp+" ?) OR (created_at = ? AND id "+comparisonOp+" ?)",
			afterCreatedAt, afterCreatedAt, afterID,
		)
	}

	orderBy := "created_at ASC, id ASC"
	if timeDesc {
		orderBy = "created_at DESC, id DESC"
	}

	var projects []model.Project
	err := q.
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"index" ASC`)
		}).
		Order(orderBy).Limit(limit).Find(&projects).Error
	return projects, err
}

func (r *projectRepo) UpdateWithTimeline(ctx context.Context, projectID uuid.UUID, fields map[string]interface{}, upserts []*model.Event, deleteIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&model.Project{}).Where("id = ?", projectID).Updates(fields).Error; err != nil {
				return err
			}
		}
		if len(deleteIDs) > 0 {
			if err := tx.Where("project_id = ? AND id IN ?", projectID, deleteIDs).Delete(&model.Event{}).Error; err != nil {
				return err
			}
		}
		for _, e := range upserts {
			e.ProjectID = projectID
			if e.ID == uuid.Nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
				continue
			}
			err := tx.Model(&model.Event{}).Where("id = ? AND project_id = ?", e.ID, projectID).
				Updates(map[string]interface{}{
					"label":       e.Label,
					"description": e.Description,
					"index":       e.Index,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *projectRepo) Delete(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Select("Events").Delete(p).Error
}
