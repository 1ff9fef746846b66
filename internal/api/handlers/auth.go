package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/poolsim/internal/auth"
)

type TokenRequest struct {
	ClientID  string `json:"client_id" binding:"required"`
	ClientKey string `json:"client_key" binding:"required"`
}

// IssueToken exchanges client credentials for a bearer token.
// POST /api/v1/auth/token
func IssueToken(db *sqlx.DB, issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "client store not configured"})
			return
		}

		var req TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id and client_key are required"})
			return
		}

		client, err := auth.Authenticate(db, req.ClientID, req.ClientKey)
		if err != nil {
			if err == auth.ErrInvalidCredentials {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			log.Printf("[AUTH] Authenticate %s: %v", req.ClientID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
			return
		}

		token, exp, err := issuer.Issue(client.ClientID)
		if err != nil {
			log.Printf("[AUTH] Issue token for %s: %v", client.ClientID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"token_type": "Bearer",
			"expires_at": exp,
		})
	}
}
