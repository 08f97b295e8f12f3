package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classhub/internal/app/models/dto"
)

// ValidateRequest binds the JSON body into obj and runs its binding rules.
// On failure the 400 response is written and false returned.
func ValidateRequest(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return false
	}
	return true
}
