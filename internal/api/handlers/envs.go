package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/poolsim/internal/session"
)

type CreateEnvRequest struct {
	NumBalls int    `json:"num_balls"`
	Seed     *int64 `json:"seed"`
}

type ResetEnvRequest struct {
	Seed *int64 `json:"seed"`
}

// CreateEnv hosts a new env
// POST /api/v1/envs
func CreateEnv(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEnvRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		s, obs, err := manager.Create(c.Request.Context(), clientID(c), req.NumBalls, req.Seed)
		if err != nil {
			respondError(c, err)
			return
		}
		info, err := manager.Info(s.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("X-Env-ID", s.ID)
		c.JSON(http.StatusCreated, gin.H{
			"env":         info,
			"observation": obs,
		})
	}
}

// ListEnvs lists the caller's envs
// GET /api/v1/envs
func ListEnvs(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"envs": manager.List(clientID(c))})
	}
}

// GetEnv describes one env
// GET /api/v1/envs/:id
func GetEnv(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, manager)
		if !ok {
			return
		}
		info, err := manager.Info(s.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

// GetObservation returns the current observation vector
// GET /api/v1/envs/:id/observation
func GetObservation(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, manager)
		if !ok {
			return
		}
		obs, err := manager.Observation(s.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"observation": obs})
	}
}

// ResetEnv starts a new episode
// POST /api/v1/envs/:id/reset
func ResetEnv(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, manager)
		if !ok {
			return
		}
		var req ResetEnvRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		obs, err := manager.Reset(c.Request.Context(), s.ID, req.Seed)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"observation": obs})
	}
}

// StepEnv plays one shot, either a discrete action or a raw angle
// POST /api/v1/envs/:id/step
func StepEnv(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, manager)
		if !ok {
			return
		}
		var req session.StepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		res, err := manager.Step(c.Request.Context(), s.ID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// GetActions resolves every discrete action against the current table
// GET /api/v1/envs/:id/actions
func GetActions(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, manager)
		if !ok {
			return
		}
		plans, err := manager.Plans(s.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"actions": plans})
	}
}

// GetSnapshot returns the render snapshot
// GET /api/v1/envs/:id/snapshot
func GetSnapshot(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, manager)
		if !ok {
			return
		}
		snap, err := manager.Snapshot(s.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// DeleteEnv closes an env
// DELETE /api/v1/envs/:id
func DeleteEnv(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, manager)
		if !ok {
			return
		}
		if err := manager.Delete(c.Request.Context(), s.ID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
