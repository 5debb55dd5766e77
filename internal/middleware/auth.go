package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openplans/planbox/internal/modules/model"
	"github.com/openplans/planbox/internal/modules/serializer"
	"github.com/openplans/planbox/internal/modules/service"
)

// PrincipalKey is the gin context key the resolved principal is stored
// under.
const PrincipalKey = "principal"

// Principal returns a middleware that resolves the request identity
// from an optional bearer token. A request without an Authorization
// header proceeds as the anonymous principal; visibility rules decide
// later what it may see. A malformed or unknown token is rejected
// outright, since presenting credentials that do not work is an error
// rather than a weaker form of anonymity.
func Principal(users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx, authSpan := otel.Tracer("middleware").Start(ctx, "principal_auth",
			trace.WithAttributes(attribute.String("middleware", "principal_auth")))

		auth := c.GetHeader("Authorization")
		if auth == "" {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.Set(PrincipalKey, model.Anonymous())
			c.Next()
			return
		}

		if !strings.HasPrefix(auth, "Bearer ") {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		u, err := users.ResolveToken(ctx, raw)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				authSpan.SetAttributes(attribute.Bool("authenticated", false))
				authSpan.End()
				c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
				return
			}
			authSpan.RecordError(err)
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}

		// Tag the request span so traces can be filtered by user.
		rootSpan := trace.SpanFromContext(c.Request.Context())
		if rootSpan.SpanContext().IsValid() {
			rootSpan.SetAttributes(attribute.String("user_id", u.ID.String()))
		}

		authSpan.SetAttributes(
			attribute.String("user_id", u.ID.String()),
			attribute.Bool("authenticated", true),
		)
		authSpan.End()

		c.Set(PrincipalKey, &model.Principal{User: u})
		c.Next()
	}
}

// CurrentPrincipal extracts the principal set by Principal. The second
// return is false when the middleware did not run.
func CurrentPrincipal(c *gin.Context) (*model.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*model.Principal)
	return p, ok
}
