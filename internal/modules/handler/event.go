package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/modules/serializer"
	"github.com/openplans/planbox/internal/modules/service"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(s service.EventService) *EventHandler {
	return &EventHandler{svc: s}
}

// ListEvents godoc
//
//	@Summary		List events
//	@Description	List a project's timeline in display order
//	@Tags			event
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	Format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Event}
//	@Router			/projects/{project_id}/events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	events, err := h.svc.List(c.Request.Context(), principal(c), projectID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: events})
}

// AppendEvent godoc
//
//	@Summary		Append event
//	@Description	Append an event to the end of a project's timeline
//	@Tags			event
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string						true	"Project ID"	Format(uuid)
//	@Param			payload		body	service.AppendEventInput	true	"AppendEvent payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Event}
//	@Router			/projects/{project_id}/events [post]
func (h *EventHandler) AppendEvent(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	in := service.AppendEventInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	event, err := h.svc.Append(c.Request.Context(), principal(c), projectID, in)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: event})
}
