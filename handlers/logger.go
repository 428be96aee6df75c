package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelease/middleware"
	"travelease/utils"
)

// getLogger returns the global logger tagged with the caller's user id.
func getLogger(c *gin.Context) *zap.Logger {
	logger := utils.GetLogger()
	if user := middleware.CurrentUser(c); user != nil {
		logger = logger.With(zap.String("userId", user.UserID))
	}
	return logger
}
