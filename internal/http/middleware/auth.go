// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication. RequireAuth verifies the
// Authorization header against a token verifier and stores the authenticated
// user id in the Gin context under the "userID" key, where handlers, the
// access logger, and the rate limiter pick it up.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberlabs/go-dating-backend/internal/auth"
)

// ctxKeyUserID is the Gin context key holding the authenticated user id.
const ctxKeyUserID = "userID"

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token.
//
// Behavior:
//   - Extracts the token from "Authorization: Bearer <token>".
//   - Verifies it with the given verifier; on success the subject user id is
//     stored under "userID" and the request proceeds.
//   - On a missing or invalid token the request is aborted with 401 and the
//     standard error envelope.
//
// Place this after RequestID() so the 401 envelope carries the correlation ID.
func RequireAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.FromAuthorizationHeader(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "missing bearer token")
			return
		}
		userID, err := verifier.Verify(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxKeyUserID, userID)
		c.Next()
	}
}

// unauthorized aborts with a 401 and the standard error envelope.
func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
