package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
)

// fail writes {success:false, message} for err. Only the public message of an
// AppError leaves the process; unexpected errors are logged.
func fail(c *gin.Context, err error) {
	status := apperrors.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"success": false, "message": apperrors.PublicMessage(err), "code": apperrors.CodeOf(err)})
}

// failText is fail for browser links, which get a plain page instead of JSON.
func failText(c *gin.Context, err error) {
	status := apperrors.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.String(status, apperrors.PublicMessage(err))
}
