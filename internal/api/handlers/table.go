package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/game"
)

// GetTableGeometry returns the static table layout so viewers can draw it before joining an env.
func GetTableGeometry(cfg *config.Config) gin.HandlerFunc {
	geometry := game.Geometry(cfg.TableConfig(0))
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, geometry)
	}
}
