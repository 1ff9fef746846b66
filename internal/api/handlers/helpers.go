package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/playmatatu/poolsim/internal/middleware"
	"github.com/playmatatu/poolsim/internal/session"
)

// clientID returns the authenticated caller, "" for anonymous requests.
func clientID(c *gin.Context) string {
	return c.GetString(middleware.ClientIDKey)
}

// ownedSession loads the env named in the path and hides envs owned by other clients.
func ownedSession(c *gin.Context, manager *session.Manager) (*session.Session, bool) {
	s, err := manager.Get(c.Param("id"))
	if err == nil && s.ClientID != "" && s.ClientID != clientID(c) {
		err = session.ErrNotFound
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

// respondError maps session errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch errors.Cause(err) {
	case session.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "env not found"})
	case session.ErrInvalidRequest:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case session.ErrTooManySessions:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
