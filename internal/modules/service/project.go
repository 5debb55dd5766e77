package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/config"
	"github.com/openplans/planbox/internal/infra/cache"
	mq "github.com/openplans/planbox/internal/infra/queue"
	"github.com/openplans/planbox/internal/modules/model"
	"github.com/openplans/planbox/internal/modules/repo"
	"github.com/openplans/planbox/internal/pkg/paging"
	"github.com/openplans/planbox/internal/pkg/slugify"
	"github.com/openplans/planbox/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// slugRetries bounds how often a derived-slug insert is retried after
// losing a uniqueness race.
const slugRetries = 3

const (
	MsgInvalidSlug = "Enter a valid slug consisting of lowercase letters, numbers, and hyphens."
	MsgTitleNoSlug = "title required to derive slug"
)

type ProjectService interface {
	Create(ctx context.Context, p *model.Principal, in CreateProjectInput) (*model.Project, error)
	Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Project, error)
	Update(ctx context.Context, p *model.Principal, id uuid.UUID, in UpdateProjectInput) (*model.Project, error)
	Delete(ctx context.Context, p *model.Principal, id uuid.UUID) error
	List(ctx context.Context, p *model.Principal, in ListProjectsInput) (*ListProjectsOutput, error)
}

type projectService struct {
	r         repo.ProjectRepo
	owners    OwnerService
	cache     *cache.ProjectCache
	publisher *mq.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewProjectService(r repo.ProjectRepo, owners OwnerService, projectCache *cache.ProjectCache, publisher *mq.Publisher, cfg *config.Config, log *zap.Logger) ProjectService {
	return &projectService{
		r:         r,
		owners:    owners,
		cache:     projectCache,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

type CreateProjectInput struct {
	Title       NullableString  `json:"title"`
	Slug        string          `json:"slug"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
	Public      bool            `json:"public"`
	Details     map[string]any  `json:"details"`
	Owner       *model.OwnerRef `json:"owner"`
	Events      TimelinePayload `json:"events"`
}

func validateTitle(t NullableString, required bool) *ValidationError {
	switch {
	case !t.Present:
		if required {
			return NewValidationError("title", MsgFieldRequired)
		}
	case t.Null:
		return NewValidationError("title", MsgFieldNotNull)
	case strings.TrimSpace(t.Value) == "":
		return NewValidationError("title", MsgFieldNotBlank)
	}
	return nil
}

func validateTimeline(t TimelinePayload, required bool) *ValidationError {
	if !t.Present {
		if required {
			return NewValidationError("events", MsgFieldRequired)
		}
		return nil
	}
	if t.Null {
		return NewValidationError("events", MsgFieldNotNull)
	}
	for _, e := range t.Items {
		if strings.TrimSpace(e.Label) == "" {
			return NewValidationError("events", "Event labels may not be blank.")
		}
	}
	return nil
}

func (s *projectService) Create(ctx context.Context, p *model.Principal, in CreateProjectInput) (*model.Project, error) {
	if !p.Authenticated() {
		return nil, ErrForbidden
	}
	if verr := validateTitle(in.Title, true); verr != nil {
		return nil, verr
	}
	// A brand-new project may omit events entirely; null is never valid.
	if verr := validateTimeline(in.Events, false); verr != nil {
		return nil, verr
	}

	owner := model.OwnerRef{Kind: model.OwnerTypeUser, ID: p.User.ID}
	if in.Owner != nil {
		owner = *in.Owner
		if !owner.Valid() {
			return nil, NewValidationError("owner", "Owner type must be \"user\" or \"organization\".")
		}
		exists, err := s.owners.Exists(ctx, owner)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrOwnerNotFound
		}
		owns, err := s.owners.Owns(ctx, p, owner)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, ErrForbidden
		}
	}

	explicitSlug := in.Slug != ""
	if explicitSlug && !slugify.IsValid(in.Slug) {
		return nil, NewValidationError("slug", MsgInvalidSlug)
	}

	proj := &model.Project{
		OwnerType:   owner.Kind,
		OwnerID:     owner.ID,
		Title:       in.Title.Value,
		Location:    in.Location,
		Description: in.Description,
		Public:      in.Public,
		Details:     datatypes.JSONMap(in.Details),
	}
	if in.Events.Present {
		for i, e := range in.Events.Items {
			proj.Events = append(proj.Events, &model.Event{
				Label:       e.Label,
				Description: e.Description,
				Index:       i,
			})
		}
	}

	if explicitSlug {
		proj.Slug = in.Slug
		if err := s.r.Create(ctx, proj); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrSlugTaken
			}
			return nil, err
		}
	} else if err := s.createWithDerivedSlug(ctx, proj); err != nil {
		return nil, err
	}

	s.publish(ctx, mq.RoutingProjectCreated, proj)
	return proj, nil
}

// createWithDerivedSlug derives a slug from the title and retries with
// the next free numeric suffix when a concurrent creator wins the same
// slug. "my-project" collides into "my-project-2", then "-3", and so on.
// A title that normalizes to nothing cannot yield a slug and is a
// validation failure.
func (s *projectService) createWithDerivedSlug(ctx context.Context, proj *model.Project) error {
	base := slugify.Make(proj.Title)
	if base == "" {
		return NewValidationError("title", MsgTitleNoSlug)
	}

	var err error
	for attempt := 0; attempt < slugRetries; attempt++ {
		candidate := base
		for n := 2; ; n++ {
			taken, checkErr := s.r.SlugExists(ctx, proj.OwnerType, proj.OwnerID, candidate)
			if checkErr != nil {
				return checkErr
			}
			if !taken {
				break
			}
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		proj.Slug = candidate

		err = s.r.Create(ctx, proj)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// Someone claimed the candidate between the check and the
		// insert; rescan and try the next suffix.
	}
	return fmt.Errorf("derive slug for %q: %w", proj.Title, err)
}

func (s *projectService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Project, error) {
	if p == nil {
		return nil, ErrForbidden
	}

	// Cache holds public projects only, so a hit is readable by anyone.
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn("project cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	proj, err := s.r.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	owns, err := s.owners.Owns(ctx, p, proj.Owner())
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, owns, proj.Public, OpRead); err != nil {
		return nil, err
	}

	if s.cache != nil && proj.Public {
		if err := s.cache.Set(ctx, proj); err != nil {
			s.log.Warn("project cache write failed", zap.Error(err))
		}
	}
	return proj, nil
}

// UpdateProjectInput is the full replacement representation for a
// project. Title and events are mandatory. The owner is fixed at
// creation and has no field here; projects do not transfer between
// owners.
type UpdateProjectInput struct {
	Title       NullableString  `json:"title"`
	Slug        NullableString  `json:"slug"`
	Location    NullableString  `json:"location"`
	Description NullableString  `json:"description"`
	Public      *bool           `json:"public"`
	Details     map[string]any  `json:"details"`
	Events      TimelinePayload `json:"events"`
}

func (s *projectService) Update(ctx context.Context, p *model.Principal, id uuid.UUID, in UpdateProjectInput) (*model.Project, error) {
	proj, err := s.loadForWrite(ctx, p, id)
	if err != nil {
		return nil, err
	}

	// Updates replace the full representation: title and the events
	// list must always be carried, so their absence is an error rather
	// than a no-op.
	if verr := validateTitle(in.Title, true); verr != nil {
		return nil, verr
	}
	if verr := validateTimeline(in.Events, true); verr != nil {
		return nil, verr
	}

	fields := map[string]interface{}{"title": in.Title.Value}
	if in.Slug.Present {
		if in.Slug.Null || !slugify.IsValid(in.Slug.Value) {
			return nil, NewValidationError("slug", MsgInvalidSlug)
		}
		if in.Slug.Value != proj.Slug {
			taken, err := s.r.SlugExists(ctx, proj.OwnerType, proj.OwnerID, in.Slug.Value)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrSlugTaken
			}
			fields["slug"] = in.Slug.Value
		}
	}
	if in.Location.Present && !in.Location.Null {
		fields["location"] = in.Location.Value
	}
	if in.Description.Present && !in.Description.Null {
		fields["description"] = in.Description.Value
	}
	if in.Public != nil {
		fields["public"] = *in.Public
	}
	if in.Details != nil {
		fields["details"] = datatypes.JSONMap(in.Details)
	}

	plan := planTimeline(proj.Events, in.Events.Items)

	start := time.Now()
	if err := s.r.UpdateWithTimeline(ctx, proj.ID, fields, plan.Upserts, plan.DeleteIDs); err != nil {
		telemetry.RecordReconcileError(ctx, "db", float64(time.Since(start).Milliseconds()))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	telemetry.RecordReconcileSuccess(ctx, float64(time.Since(start).Milliseconds()),
		int64(len(plan.Upserts)), int64(len(plan.DeleteIDs)))

	s.invalidate(ctx, proj.ID)

	updated, err := s.r.GetByID(ctx, proj.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mq.RoutingProjectUpdated, updated)
	return updated, nil
}

func (s *projectService) Delete(ctx context.Context, p *model.Principal, id uuid.UUID) error {
	proj, err := s.loadForWrite(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.r.Delete(ctx, proj); err != nil {
		return err
	}
	s.invalidate(ctx, proj.ID)
	s.publish(ctx, mq.RoutingProjectDeleted, proj)
	return nil
}

// loadForWrite fetches the project and enforces write access for the
// principal, collapsing hidden projects into ErrNotFound.
func (s *projectService) loadForWrite(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Project, error) {
	proj, err := s.r.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	owns, err := s.owners.Owns(ctx, p, proj.Owner())
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, owns, proj.Public, OpWrite); err != nil {
		return nil, err
	}
	return proj, nil
}

type ListProjectsInput struct {
	Limit    int    `json:"limit"`
	Cursor   string `json:"cursor"`
	TimeDesc bool   `json:"time_desc"`
}

type ListProjectsOutput struct {
	Items      []model.Project `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

func (s *projectService) List(ctx context.Context, p *model.Principal, in ListProjectsInput) (*ListProjectsOutput, error) {
	if p == nil {
		return nil, ErrForbidden
	}

	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	owners, err := s.owners.RefsFor(ctx, p)
	if err != nil {
		return nil, err
	}

	// Query limit+1 is used to determine has_more
	projects, err := s.r.ListVisibleWithCursor(ctx, owners, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListProjectsOutput{
		Items:   projects,
		HasMore: false,
	}
	if len(projects) > in.Limit {
		out.HasMore = true
		out.Items = projects[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *projectService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("project cache invalidation failed", zap.Error(err))
	}
}

// publish emits a lifecycle message. Delivery is best effort; a broker
// outage must not fail the request that already committed.
func (s *projectService) publish(ctx context.Context, routingKey string, proj *model.Project) {
	if s.publisher == nil {
		return
	}
	evt := mq.ProjectEvent{
		ProjectID:  proj.ID,
		OwnerType:  string(proj.OwnerType),
		OwnerID:    proj.OwnerID,
		Slug:       proj.Slug,
		Public:     proj.Public,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishJSON(ctx, s.cfg.RabbitMQ.Exchange, routingKey, evt); err != nil {
		s.log.Error("failed to publish project event",
			zap.String("routing_key", routingKey), zap.Error(err))
	}
}
