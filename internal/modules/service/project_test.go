package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/config"
	"github.com/openplans/planbox/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newProjectServiceForTest(pr *MockProjectRepo, or *MockOrganizationRepo) ProjectService {
	owners := NewOwnerService(&MockUserRepo{}, or)
	return NewProjectService(pr, owners, nil, nil, &config.Config{}, zap.NewNop())
}

func ns(v string) NullableString {
	return NullableString{Present: true, Value: v}
}

func nsNull() NullableString {
	return NullableString{Present: true, Null: true}
}

func TestProjectService_Create_DerivedSlug(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: uuid.New()}
	p := &model.Principal{User: user}

	t.Run("slug derived from title", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("SlugExists", ctx, model.OwnerTypeUser, user.ID, "my-project").Return(false, nil)
		pr.On("Create", ctx, mock.AnythingOfType("*model.Project")).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		proj, err := svc.Create(ctx, p, CreateProjectInput{Title: ns("My Project")})

		require.NoError(t, err)
		assert.Equal(t, "my-project", proj.Slug)
		assert.Equal(t, model.OwnerTypeUser, proj.OwnerType)
		assert.Equal(t, user.ID, proj.OwnerID)
		pr.AssertExpectations(t)
	})

	t.Run("taken slug gets numeric suffix", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("SlugExists", ctx, model.OwnerTypeUser, user.ID, "my-project").Return(true, nil)
		pr.On("SlugExists", ctx, model.OwnerTypeUser, user.ID, "my-project-2").Return(false, nil)
		pr.On("Create", ctx, mock.AnythingOfType("*model.Project")).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		proj, err := svc.Create(ctx, p, CreateProjectInput{Title: ns("My Project")})

		require.NoError(t, err)
		assert.Equal(t, "my-project-2", proj.Slug)
	})

	t.Run("lost insert race retries with next suffix", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("SlugExists", ctx, model.OwnerTypeUser, user.ID, "my-project").Return(false, nil).Once()
		pr.On("Create", ctx, mock.AnythingOfType("*model.Project")).Return(gorm.ErrDuplicatedKey).Once()
		pr.On("SlugExists", ctx, model.OwnerTypeUser, user.ID, "my-project").Return(true, nil).Once()
		pr.On("SlugExists", ctx, model.OwnerTypeUser, user.ID, "my-project-2").Return(false, nil).Once()
		pr.On("Create", ctx, mock.AnythingOfType("*model.Project")).Return(nil).Once()

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		proj, err := svc.Create(ctx, p, CreateProjectInput{Title: ns("My Project")})

		require.NoError(t, err)
		assert.Equal(t, "my-project-2", proj.Slug)
		pr.AssertExpectations(t)
	})

	t.Run("events get dense indices", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("SlugExists", ctx, model.OwnerTypeUser, user.ID, "launch-plan").Return(false, nil)
		pr.On("Create", ctx, mock.AnythingOfType("*model.Project")).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		proj, err := svc.Create(ctx, p, CreateProjectInput{
			Title: ns("Launch Plan"),
			Events: TimelinePayload{Present: true, Items: []EventInput{
				{Label: "Kickoff"},
				{Label: "Review"},
				{Label: "Launch"},
			}},
		})

		require.NoError(t, err)
		require.Len(t, proj.Events, 3)
		for i, e := range proj.Events {
			assert.Equal(t, i, e.Index)
		}
	})
}

func TestProjectService_Create_ExplicitSlug(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: uuid.New()}
	p := &model.Principal{User: user}

	t.Run("explicit slug is used verbatim", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("Create", ctx, mock.MatchedBy(func(m *model.Project) bool {
			return m.Slug == "custom-slug"
		})).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		proj, err := svc.Create(ctx, p, CreateProjectInput{Title: ns("Whatever"), Slug: "custom-slug"})

		require.NoError(t, err)
		assert.Equal(t, "custom-slug", proj.Slug)
	})

	t.Run("explicit slug bypasses derivation entirely", func(t *testing.T) {
		// Would fail slug derivation, but the client-supplied slug
		// makes derivation moot.
		pr := &MockProjectRepo{}
		pr.On("Create", ctx, mock.AnythingOfType("*model.Project")).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		proj, err := svc.Create(ctx, p, CreateProjectInput{Title: ns("!!!"), Slug: "punctuation-art"})

		require.NoError(t, err)
		assert.Equal(t, "punctuation-art", proj.Slug)
	})

	t.Run("taken explicit slug is a conflict", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("Create", ctx, mock.AnythingOfType("*model.Project")).Return(gorm.ErrDuplicatedKey)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Create(ctx, p, CreateProjectInput{Title: ns("Whatever"), Slug: "custom-slug"})

		assert.ErrorIs(t, err, ErrSlugTaken)
	})

	t.Run("malformed explicit slug is a validation error", func(t *testing.T) {
		svc := newProjectServiceForTest(&MockProjectRepo{}, &MockOrganizationRepo{})
		_, err := svc.Create(ctx, p, CreateProjectInput{Title: ns("Whatever"), Slug: "Not A Slug!"})

		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "slug")
	})
}

func TestProjectService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	p := &model.Principal{User: &model.User{ID: uuid.New()}}
	svc := newProjectServiceForTest(&MockProjectRepo{}, &MockOrganizationRepo{})

	tests := []struct {
		name    string
		in      CreateProjectInput
		field   string
		message string
	}{
		{"missing title", CreateProjectInput{}, "title", MsgFieldRequired},
		{"null title", CreateProjectInput{Title: nsNull()}, "title", MsgFieldNotNull},
		{"blank title", CreateProjectInput{Title: ns("   ")}, "title", MsgFieldNotBlank},
		{"null events", CreateProjectInput{
			Title:  ns("ok"),
			Events: TimelinePayload{Present: true, Null: true},
		}, "events", MsgFieldNotNull},
		{"title with no derivable slug", CreateProjectInput{Title: ns("!!!???")}, "title", MsgTitleNoSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, p, tt.in)
			ve, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, []string{tt.message}, ve.Fields[tt.field])
		})
	}

	t.Run("anonymous cannot create", func(t *testing.T) {
		_, err := svc.Create(ctx, model.Anonymous(), CreateProjectInput{Title: ns("ok")})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestProjectService_Get(t *testing.T) {
	ctx := context.Background()
	owner := &model.User{ID: uuid.New()}
	ownerP := &model.Principal{User: owner}
	stranger := &model.Principal{User: &model.User{ID: uuid.New()}}

	private := &model.Project{ID: uuid.New(), OwnerType: model.OwnerTypeUser, OwnerID: owner.ID, Public: false}
	public := &model.Project{ID: uuid.New(), OwnerType: model.OwnerTypeUser, OwnerID: owner.ID, Public: true}

	tests := []struct {
		name    string
		p       *model.Principal
		proj    *model.Project
		wantErr error
	}{
		{"owner reads private", ownerP, private, nil},
		{"stranger reads private", stranger, private, ErrNotFound},
		{"anonymous reads private", model.Anonymous(), private, ErrNotFound},
		{"anonymous reads public", model.Anonymous(), public, nil},
		{"stranger reads public", stranger, public, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := &MockProjectRepo{}
			pr.On("GetByID", ctx, tt.proj.ID).Return(tt.proj, nil)

			svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
			got, err := svc.Get(ctx, tt.p, tt.proj.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.proj.ID, got.ID)
			}
		})
	}

	t.Run("missing project", func(t *testing.T) {
		pr := &MockProjectRepo{}
		id := uuid.New()
		pr.On("GetByID", ctx, id).Return(nil, gorm.ErrRecordNotFound)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Get(ctx, ownerP, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("organization member reads private", func(t *testing.T) {
		orgID := uuid.New()
		member := &model.Principal{User: &model.User{ID: uuid.New()}}
		orgProj := &model.Project{ID: uuid.New(), OwnerType: model.OwnerTypeOrganization, OwnerID: orgID, Public: false}

		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, orgProj.ID).Return(orgProj, nil)
		or := &MockOrganizationRepo{}
		or.On("IsMember", ctx, orgID, member.User.ID).Return(true, nil)

		svc := newProjectServiceForTest(pr, or)
		got, err := svc.Get(ctx, member, orgProj.ID)

		require.NoError(t, err)
		assert.Equal(t, orgProj.ID, got.ID)
		or.AssertExpectations(t)
	})
}

func TestProjectService_Update(t *testing.T) {
	ctx := context.Background()
	owner := &model.User{ID: uuid.New()}
	ownerP := &model.Principal{User: owner}
	stranger := &model.Principal{User: &model.User{ID: uuid.New()}}

	newProject := func(public bool) *model.Project {
		return &model.Project{
			ID:        uuid.New(),
			OwnerType: model.OwnerTypeUser,
			OwnerID:   owner.ID,
			Slug:      "plan",
			Title:     "Plan",
			Public:    public,
			Events: []*model.Event{
				{ID: uuid.New(), Label: "one", Index: 0},
				{ID: uuid.New(), Label: "two", Index: 1},
			},
		}
	}

	t.Run("stranger writing public project is forbidden", func(t *testing.T) {
		proj := newProject(true)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, stranger, proj.ID, UpdateProjectInput{Title: ns("hacked")})

		assert.ErrorIs(t, err, ErrForbidden)
		pr.AssertNotCalled(t, "UpdateWithTimeline", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stranger writing private project sees not found", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, stranger, proj.ID, UpdateProjectInput{Title: ns("hacked")})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("owner reconciles timeline", func(t *testing.T) {
		proj := newProject(false)
		keep := proj.Events[1]

		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)
		pr.On("UpdateWithTimeline", ctx, proj.ID,
			mock.MatchedBy(func(fields map[string]interface{}) bool {
				return fields["title"] == "Renamed"
			}),
			mock.MatchedBy(func(upserts []*model.Event) bool {
				return len(upserts) == 2 &&
					upserts[0].ID == keep.ID && upserts[0].Index == 0 &&
					upserts[1].ID == uuid.Nil && upserts[1].Index == 1
			}),
			mock.MatchedBy(func(deleteIDs []uuid.UUID) bool {
				return len(deleteIDs) == 1 && deleteIDs[0] == proj.Events[0].ID
			}),
		).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{
			Title: ns("Renamed"),
			Events: TimelinePayload{Present: true, Items: []EventInput{
				{ID: &keep.ID, Label: "two"},
				{Label: "three"},
			}},
		})

		require.NoError(t, err)
		pr.AssertExpectations(t)
	})

	t.Run("omitting title on update is rejected", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{
			Events: TimelinePayload{Present: true, Items: []EventInput{}},
		})

		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, []string{MsgFieldRequired}, ve.Fields["title"])
		pr.AssertNotCalled(t, "UpdateWithTimeline", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank title on update is rejected", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{
			Title:  ns("   "),
			Events: TimelinePayload{Present: true, Items: []EventInput{}},
		})

		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, []string{MsgFieldNotBlank}, ve.Fields["title"])
	})

	t.Run("omitting events on update is rejected", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{Title: ns("Renamed")})

		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, []string{MsgFieldRequired}, ve.Fields["events"])
		pr.AssertNotCalled(t, "UpdateWithTimeline", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty events list clears the timeline", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)
		pr.On("UpdateWithTimeline", ctx, proj.ID,
			mock.Anything,
			mock.MatchedBy(func(upserts []*model.Event) bool { return len(upserts) == 0 }),
			mock.MatchedBy(func(deleteIDs []uuid.UUID) bool { return len(deleteIDs) == 2 }),
		).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{
			Title:  ns("Renamed"),
			Events: TimelinePayload{Present: true, Items: []EventInput{}},
		})

		require.NoError(t, err)
		pr.AssertExpectations(t)
	})

	t.Run("changing to a taken slug conflicts", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)
		pr.On("SlugExists", ctx, model.OwnerTypeUser, owner.ID, "other").Return(true, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{
			Title:  ns("Plan"),
			Slug:   ns("other"),
			Events: TimelinePayload{Present: true, Items: []EventInput{}},
		})

		assert.ErrorIs(t, err, ErrSlugTaken)
	})

	t.Run("owner columns are never written", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)
		pr.On("UpdateWithTimeline", ctx, proj.ID,
			mock.MatchedBy(func(fields map[string]interface{}) bool {
				_, hasType := fields["owner_type"]
				_, hasID := fields["owner_id"]
				return !hasType && !hasID
			}),
			mock.Anything, mock.Anything,
		).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{
			Title:  ns("Plan"),
			Events: TimelinePayload{Present: true, Items: []EventInput{}},
		})

		require.NoError(t, err)
		pr.AssertExpectations(t)
	})

	t.Run("null events rejected", func(t *testing.T) {
		proj := newProject(false)
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		_, err := svc.Update(ctx, ownerP, proj.ID, UpdateProjectInput{
			Title:  ns("Plan"),
			Events: TimelinePayload{Present: true, Null: true},
		})

		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "events")
	})
}

func TestProjectService_Delete(t *testing.T) {
	ctx := context.Background()
	owner := &model.User{ID: uuid.New()}
	ownerP := &model.Principal{User: owner}
	stranger := &model.Principal{User: &model.User{ID: uuid.New()}}

	proj := &model.Project{ID: uuid.New(), OwnerType: model.OwnerTypeUser, OwnerID: owner.ID, Public: false}

	t.Run("owner deletes", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)
		pr.On("Delete", ctx, proj).Return(nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		assert.NoError(t, svc.Delete(ctx, ownerP, proj.ID))
		pr.AssertExpectations(t)
	})

	t.Run("stranger deleting private project sees not found", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("GetByID", ctx, proj.ID).Return(proj, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		err := svc.Delete(ctx, stranger, proj.ID)

		assert.ErrorIs(t, err, ErrNotFound)
		pr.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestProjectService_List(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: uuid.New()}
	p := &model.Principal{User: user}
	orgID := uuid.New()

	t.Run("lists with membership refs and pagination", func(t *testing.T) {
		items := []model.Project{
			{ID: uuid.New(), CreatedAt: time.Now().Add(-2 * time.Hour)},
			{ID: uuid.New(), CreatedAt: time.Now().Add(-1 * time.Hour)},
			{ID: uuid.New(), CreatedAt: time.Now()},
		}

		pr := &MockProjectRepo{}
		pr.On("ListVisibleWithCursor", ctx,
			[]model.OwnerRef{
				{Kind: model.OwnerTypeUser, ID: user.ID},
				{Kind: model.OwnerTypeOrganization, ID: orgID},
			},
			time.Time{}, uuid.UUID{}, 3, false,
		).Return(items, nil)

		or := &MockOrganizationRepo{}
		or.On("ListForUser", ctx, user.ID).Return([]model.Organization{{ID: orgID}}, nil)

		svc := newProjectServiceForTest(pr, or)
		out, err := svc.List(ctx, p, ListProjectsInput{Limit: 2})

		require.NoError(t, err)
		assert.True(t, out.HasMore)
		assert.Len(t, out.Items, 2)
		assert.NotEmpty(t, out.NextCursor)
	})

	t.Run("anonymous sees only public", func(t *testing.T) {
		pr := &MockProjectRepo{}
		pr.On("ListVisibleWithCursor", ctx, []model.OwnerRef(nil),
			time.Time{}, uuid.UUID{}, 21, false,
		).Return([]model.Project{}, nil)

		svc := newProjectServiceForTest(pr, &MockOrganizationRepo{})
		out, err := svc.List(ctx, model.Anonymous(), ListProjectsInput{Limit: 20})

		require.NoError(t, err)
		assert.False(t, out.HasMore)
	})
}
