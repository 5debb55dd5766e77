package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openplans/planbox/internal/middleware"
	"github.com/openplans/planbox/internal/modules/model"
	"github.com/openplans/planbox/internal/modules/serializer"
	"github.com/openplans/planbox/internal/modules/service"
	"github.com/openplans/planbox/internal/pkg/paging"
)

// principal pulls the request identity set by the auth middleware. A
// missing principal means the route was wired without it; treat that
// as forbidden rather than guessing.
func principal(c *gin.Context) *model.Principal {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return nil
	}
	return p
}

// writeServiceError maps service errors onto HTTP responses. The
// not-found and forbidden cases are deliberate: a private project
// read by a stranger 404s so its existence stays hidden, while a
// write to a public project 403s without any authentication challenge.
func writeServiceError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, serializer.ValidationErr(ve.Fields))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr(""))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, serializer.ForbiddenErr(""))
	case errors.Is(err, service.ErrSlugTaken):
		c.JSON(http.StatusConflict, serializer.ConflictErr("slug already in use for this owner", err))
	case errors.Is(err, service.ErrOwnerNotFound):
		c.JSON(http.StatusBadRequest, serializer.ParamErr("owner not found", err))
	case errors.Is(err, paging.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid cursor", err))
	default:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
	}
}
