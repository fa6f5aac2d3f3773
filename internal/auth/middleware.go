package auth

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/furniscan/furniscan-backend/internal/users"
)

// TokenVerifier is the slice of the Firebase Auth client the middleware
// needs; *fbauth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// UserEnsurer upserts the verified identity into the users table and returns
// the database id.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (string, error)
}

// RequireUser validates the Bearer ID token, upserts the users row, and
// stores uid/email/db-id in the request context. Every project and scan
// route sits behind it: an unauthenticated caller never reaches a repository.
func RequireUser(verifier TokenVerifier, repo UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			c.Abort()
			return
		}

		decoded, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			c.Abort()
			return
		}

		email, _ := decoded.Claims["email"].(string)
		name, _ := decoded.Claims["name"].(string)

		dbID, err := repo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: decoded.UID,
			Email:       email,
			DisplayName: name,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, decoded.UID)
		c.Set(CtxUserDBID, dbID)
		c.Set(CtxEmail, email)
		c.Set(CtxDisplayName, name)

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
