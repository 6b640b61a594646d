package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/feedsync/internal/auth"
)

const (
	ctxUserID   = "user_id"
	ctxUserName = "user_name"
)

// Authenticate reads an optional bearer token. Requests without one continue
// anonymously; a malformed or invalid token is rejected with -32001.
func Authenticate(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxUserName, claims.Name)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &JSONRPCError{
			Code:    ErrUnauthorized,
			Message: message,
		},
	})
}

// viewerID returns the authenticated account id, or "" for anonymous requests
func viewerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// requireViewer checks that the caller is signed in as the given account
func requireViewer(c *gin.Context, accountID string) error {
	uid := viewerID(c)
	if uid == "" {
		return unauthorized("Authentication required")
	}
	if uid != accountID {
		return unauthorized("Token does not belong to " + accountID)
	}
	return nil
}

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_id", viewerID(c)),
		)
	}
}
