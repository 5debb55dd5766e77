package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/infra/cache"
	"github.com/openplans/planbox/internal/modules/model"
	"github.com/openplans/planbox/internal/modules/repo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EventService interface {
	// List returns a project's timeline in display order, subject to
	// the same visibility rules as reading the project itself.
	List(ctx context.Context, p *model.Principal, projectID uuid.UUID) ([]model.Event, error)
	// Append adds an event to the end of a project's timeline.
	Append(ctx context.Context, p *model.Principal, projectID uuid.UUID, in AppendEventInput) (*model.Event, error)
}

type AppendEventInput struct {
	Label       NullableString `json:"label"`
	Description string         `json:"description"`
}

type eventService struct {
	events   repo.EventRepo
	projects repo.ProjectRepo
	owners   OwnerService
	cache    *cache.ProjectCache
	log      *zap.Logger
}

func NewEventService(events repo.EventRepo, projects repo.ProjectRepo, owners OwnerService, projectCache *cache.ProjectCache, log *zap.Logger) EventService {
	return &eventService{
		events:   events,
		projects: projects,
		owners:   owners,
		cache:    projectCache,
		log:      log,
	}
}

func (s *eventService) List(ctx context.Context, p *model.Principal, projectID uuid.UUID) ([]model.Event, error) {
	if err := s.authorizeProject(ctx, p, projectID, OpRead); err != nil {
		return nil, err
	}
	return s.events.ListByProject(ctx, projectID)
}

func (s *eventService) Append(ctx context.Context, p *model.Principal, projectID uuid.UUID, in AppendEventInput) (*model.Event, error) {
	switch {
	case !in.Label.Present:
		return nil, NewValidationError("label", MsgFieldRequired)
	case in.Label.Null:
		return nil, NewValidationError("label", MsgFieldNotNull)
	case strings.TrimSpace(in.Label.Value) == "":
		return nil, NewValidationError("label", MsgFieldNotBlank)
	}

	if err := s.authorizeProject(ctx, p, projectID, OpWrite); err != nil {
		return nil, err
	}

	e := &model.Event{
		ProjectID:   projectID,
		Label:       in.Label.Value,
		Description: in.Description,
	}
	if err := s.events.Append(ctx, e); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, projectID); err != nil {
			s.log.Warn("project cache invalidation failed", zap.Error(err))
		}
	}
	return e, nil
}

func (s *eventService) authorizeProject(ctx context.Context, p *model.Principal, projectID uuid.UUID, op Operation) error {
	proj, err := s.projects.GetByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	owns, err := s.owners.Owns(ctx, p, proj.Owner())
	if err != nil {
		return err
	}
	return Authorize(p, owns, proj.Public, op)
}
