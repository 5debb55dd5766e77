package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openplans/planbox/internal/modules/serializer"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me godoc
//
//	@Summary		Get current user
//	@Description	Return the profile of the authenticated user
//	@Tags			user
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.User}
//	@Router			/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	p := principal(c)
	if !p.Authenticated() {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p.User})
}
