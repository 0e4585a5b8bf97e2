package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/floorscreen/internal/models"
	"github.com/yoockh/floorscreen/internal/utils"
)

// RequireRole lets the request through only when JWTAuth stored one of the
// allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	allow := map[string]struct{}{}
	for _, a := range allowed {
		a = strings.TrimSpace(strings.ToLower(a))
		if a != "" {
			allow[a] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetString(CtxRole)))
		if _, ok := allow[role]; role == "" || !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "dashboard access requires an admin or recruiter role",
			})
			return
		}
		c.Next()
	}
}

// RequireStaff admits the dashboard roles.
func RequireStaff() gin.HandlerFunc { return RequireRole(models.DashboardRoles()...) }
