package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/joblo-ai/backend/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	userCtx             = "authUser"
)

// userIdentityMiddleware resolves the bearer token to a live user record.
// Token-version and account-state checks happen in the service, so a token
// invalidated by sign-out-everywhere dies here.
func (h *Handler) userIdentityMiddleware(c *gin.Context) {
	token, err := parseAuthHeader(c)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.services.Auth.UserByAccessToken(c.Request.Context(), token)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Set(userCtx, user)
	c.Next()
}

func parseAuthHeader(c *gin.Context) (string, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return "", errors.New("empty auth header")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
		return "", errors.New("invalid auth header")
	}

	return headerParts[1], nil
}

func getAuthUser(c *gin.Context) (*domain.User, bool) {
	value, ok := c.Get(userCtx)
	if !ok {
		return nil, false
	}

	user, ok := value.(*domain.User)
	return user, ok
}
