package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/modules/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo interface {
	// Append inserts the event at the end of its project's timeline.
	// The index is computed inside the insert transaction so two
	// concurrent appends cannot claim the same position.
	Append(ctx context.Context, e *model.Event) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Event, error)
}

type eventRepo struct{ db *gorm.DB }

func NewEventRepo(db *gorm.DB) EventRepo {
	return &eventRepo{db: db}
}

func (r *eventRepo) Append(ctx context.Context, e *model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the project row so concurrent appends serialize and
		// cannot claim the same index.
		var p model.Project
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", e.ProjectID).
			First(&p).Error
		if err != nil {
			return err
		}

		var next int
		err = tx.Model(&model.Event{}).
			Where("project_id = ?", e.ProjectID).
			Select(`COALESCE(MAX("index"), -1) + 1`).
			Row().Scan(&next)
		if err != nil {
			return err
		}
		e.Index = next
		return tx.Create(e).Error
	})
}

func (r *eventRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order(`"index" ASC`).
		Find(&events).Error
	return events, err
}
