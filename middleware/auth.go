package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/models"
	"github.com/pablofelipe01/sirius-meets/utils"
)

const (
	CtxUser = "user"
)

// AuthJWT checks Authorization: Bearer <token>, validates the JWT,
// loads the profile and injects it into the context. The profile (and
// with it the approval status) is re-read on every request rather than
// trusted from the token, so a status change takes effect on the next
// call.
func AuthJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		claims, err := utils.VerifyToken(rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		uid, err := strconv.ParseUint(claims.UserID, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid subject"})
			return
		}

		var user models.Profile
		if err := config.DB.First(&user, uid).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// RequireApproved blocks everything but approved accounts. Pending and
// rejected users get the route the frontend should send them to.
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		u := v.(models.Profile)
		if !u.IsApproved() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message":  "Account is not approved",
				"status":   u.Status,
				"redirect": RouteFor(&u),
			})
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin blocks routes reserved for the admin panel.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		u := v.(models.Profile)
		if !u.IsSuperAdmin || !u.IsApproved() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}

// RouteFor derives the frontend route for a profile's current state.
// Kept in one place so every response that redirects agrees.
func RouteFor(p *models.Profile) string {
	switch {
	case p.IsApproved() && p.IsSuperAdmin:
		return "/admin/dashboard"
	case p.IsApproved():
		return "/dashboard"
	case p.Status == models.StatusPending:
		return "/auth/pending"
	default:
		return "/auth/unauthorized"
	}
}
