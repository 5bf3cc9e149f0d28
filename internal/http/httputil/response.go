package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lotto-treasury/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, httpErr *common.HttpError) {
	c.AbortWithStatusJSON(httpErr.StatusCode, Response{
		Success: false,
		Code:    httpErr.Code,
		Error:   httpErr.Message,
	})
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, common.HTTPErrorBadRequest(msg))
}

// HandleError writes the response for a service error.
func HandleError(c *gin.Context, err error) {
	Error(c, common.HTTPErrorFrom(err))
}
