package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the uniform HTTP envelope for the Submission API.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success writes a successful envelope.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    SuccessCode,
		Message: errorMsg[SuccessCode],
		Data:    data,
	})
}

// Error writes a failure envelope. Submission errors are synchronous and
// user-visible per spec §7; this is the only place that happens.
func Error(c *gin.Context, err error) {
	e := ConvertErr(err)
	c.JSON(http.StatusOK, Response{
		Code:    e.ErrCode,
		Message: e.ErrMsg,
		Data:    nil,
	})
}
