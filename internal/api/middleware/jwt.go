package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/floorscreen/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxStaffID = "staff_id"
	CtxRole    = "role"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// JWTConfig describes how dashboard tokens are verified. Issuer and Audience
// are checked only when set.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type staffClaims struct {
	jwt.RegisteredClaims
	Role        string         `json:"role"`         // provider role, e.g. "authenticated"
	AppMetadata map[string]any `json:"app_metadata"` // carries {"role":"admin"|"recruiter"}
}

func (c *staffClaims) appRole() string {
	if c.AppMetadata == nil {
		return ""
	}
	s, _ := c.AppMetadata["role"].(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Code: utils.CodeUnauthorized, Message: msg})
}

// JWTAuth verifies an HS256 bearer token issued by the identity provider for
// dashboard staff. Browsers cannot set headers on websocket upgrades, so an
// access_token query parameter is accepted as well.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "SUPABASE_JWT_SECRET is not set",
			})
			return
		}

		raw := bearerToken(c)
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := &staffClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || tok == nil || !tok.Valid {
			unauthorized(c, "invalid token")
			return
		}

		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			unauthorized(c, "invalid token issuer")
			return
		}
		if cfg.Audience != "" {
			valid := false
			for _, aud := range claims.Audience {
				if aud == cfg.Audience {
					valid = true
					break
				}
			}
			if !valid {
				unauthorized(c, "invalid token audience")
				return
			}
		}

		if claims.Subject == "" {
			unauthorized(c, "missing subject")
			return
		}

		c.Set(CtxStaffID, claims.Subject)
		c.Set(CtxRole, claims.appRole())
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(c.Query("access_token"))
}
