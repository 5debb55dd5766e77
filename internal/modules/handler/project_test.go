package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/middleware"
	"github.com/openplans/planbox/internal/modules/model"
	"github.com/openplans/planbox/internal/modules/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProjectService is a mock implementation of service.ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, p *model.Principal, in service.CreateProjectInput) (*model.Project, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, p *model.Principal, id uuid.UUID, in service.UpdateProjectInput) (*model.Project, error) {
	args := m.Called(ctx, p, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, p *model.Principal, id uuid.UUID) error {
	args := m.Called(ctx, p, id)
	return args.Error(0)
}

func (m *MockProjectService) List(ctx context.Context, p *model.Principal, in service.ListProjectsInput) (*service.ListProjectsOutput, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListProjectsOutput), args.Error(1)
}

func setupProjectRouter(svc service.ProjectService, p *model.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, p)
		c.Next()
	})
	h := NewProjectHandler(svc)
	r.POST("/projects", h.CreateProject)
	r.GET("/projects", h.ListProjects)
	r.GET("/projects/:project_id", h.GetProject)
	r.PUT("/projects/:project_id", h.UpdateProject)
	r.DELETE("/projects/:project_id", h.DeleteProject)
	return r
}

func TestProjectHandler_CreateProject(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	p := &model.Principal{User: user}

	tests := []struct {
		name           string
		body           string
		setup          func(*MockProjectService)
		expectedStatus int
	}{
		{
			name: "created",
			body: `{"title": "My Project"}`,
			setup: func(svc *MockProjectService) {
				svc.On("Create", mock.Anything, p, mock.Anything).
					Return(&model.Project{ID: uuid.New(), Slug: "my-project", Title: "My Project"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "validation error",
			body: `{"title": null}`,
			setup: func(svc *MockProjectService) {
				svc.On("Create", mock.Anything, p, mock.Anything).
					Return(nil, service.NewValidationError("title", service.MsgFieldNotNull))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "slug conflict",
			body: `{"title": "x", "slug": "taken"}`,
			setup: func(svc *MockProjectService) {
				svc.On("Create", mock.Anything, p, mock.Anything).
					Return(nil, service.ErrSlugTaken)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "forbidden",
			body: `{"title": "x"}`,
			setup: func(svc *MockProjectService) {
				svc.On("Create", mock.Anything, p, mock.Anything).
					Return(nil, service.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "malformed json",
			body:           `{"title": `,
			setup:          func(svc *MockProjectService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockProjectService{}
			tt.setup(svc)
			r := setupProjectRouter(svc, p)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/projects", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestProjectHandler_GetProject(t *testing.T) {
	projectID := uuid.New()
	anon := model.Anonymous()

	tests := []struct {
		name           string
		setup          func(*MockProjectService)
		expectedStatus int
	}{
		{
			name: "found",
			setup: func(svc *MockProjectService) {
				svc.On("Get", mock.Anything, anon, projectID).
					Return(&model.Project{ID: projectID, Public: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			// Private projects answer with 404 for non-owners so their
			// existence stays hidden.
			name: "hidden",
			setup: func(svc *MockProjectService) {
				svc.On("Get", mock.Anything, anon, projectID).
					Return(nil, service.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockProjectService{}
			tt.setup(svc)
			r := setupProjectRouter(svc, anon)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/projects/"+projectID.String(), nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("bad uuid", func(t *testing.T) {
		r := setupProjectRouter(&MockProjectService{}, anon)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects/not-a-uuid", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProjectHandler_UpdateProject(t *testing.T) {
	projectID := uuid.New()
	anon := model.Anonymous()

	tests := []struct {
		name           string
		setup          func(*MockProjectService)
		expectedStatus int
	}{
		{
			name: "updated",
			setup: func(svc *MockProjectService) {
				svc.On("Update", mock.Anything, anon, projectID, mock.Anything).
					Return(&model.Project{ID: projectID}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			// Anonymous writes to a public project are refused without
			// an authentication challenge.
			name: "forbidden",
			setup: func(svc *MockProjectService) {
				svc.On("Update", mock.Anything, anon, projectID, mock.Anything).
					Return(nil, service.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "hidden",
			setup: func(svc *MockProjectService) {
				svc.On("Update", mock.Anything, anon, projectID, mock.Anything).
					Return(nil, service.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockProjectService{}
			tt.setup(svc)
			r := setupProjectRouter(svc, anon)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/projects/"+projectID.String(),
				bytes.NewBufferString(`{"title": "Renamed"}`))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("challenge header is never set on forbidden", func(t *testing.T) {
		svc := &MockProjectService{}
		svc.On("Update", mock.Anything, anon, projectID, mock.Anything).
			Return(nil, service.ErrForbidden)
		r := setupProjectRouter(svc, anon)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/projects/"+projectID.String(),
			bytes.NewBufferString(`{"title": "Renamed"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("WWW-Authenticate"))
	})
}

func TestProjectHandler_DeleteProject(t *testing.T) {
	projectID := uuid.New()
	p := &model.Principal{User: &model.User{ID: uuid.New()}}

	t.Run("no content on success", func(t *testing.T) {
		svc := &MockProjectService{}
		svc.On("Delete", mock.Anything, p, projectID).Return(nil)
		r := setupProjectRouter(svc, p)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/projects/"+projectID.String(), nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("hidden project", func(t *testing.T) {
		svc := &MockProjectService{}
		svc.On("Delete", mock.Anything, p, projectID).Return(service.ErrNotFound)
		r := setupProjectRouter(svc, p)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/projects/"+projectID.String(), nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProjectHandler_ListProjects(t *testing.T) {
	anon := model.Anonymous()

	svc := &MockProjectService{}
	svc.On("List", mock.Anything, anon, service.ListProjectsInput{Limit: 20}).
		Return(&service.ListProjectsOutput{Items: []model.Project{{ID: uuid.New()}}}, nil)
	r := setupProjectRouter(svc, anon)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
