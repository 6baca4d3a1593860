package httpservice

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yourorg/azure-blob-kit/pkg/errors"
)

var validate = validator.New()

// ValidateQuery binds and validates query parameters.
func ValidateQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters: " + err.Error(),
			"code":  "VALIDATION_ERROR",
		})
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Validation failed: " + err.Error(),
			"code":  "VALIDATION_ERROR",
		})
		return false
	}
	return true
}

// HandleError maps a storage error to an HTTP response.
func HandleError(c *gin.Context, err error) {
	se := errors.FromError(err)
	body := gin.H{
		"error": se.Error(),
		"code":  string(se.Code),
	}
	if se.Code == errors.ErrorCodeUnexpectedStatus {
		body["upstream_status"] = se.StatusCode
	}
	c.JSON(errors.ToHTTPStatus(se.Code), body)
	c.Abort()
}

// SuccessResponse sends a success response.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}
