package utils

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err as the message. Validation failures, from binding
// or from validator directly, also list one entry per offending field.
func RespondError(c *gin.Context, code int, err error) {
	resp := JSONResponse{Message: err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Message = "validation failed"
		for _, fe := range verrs {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	c.JSON(code, resp)
}
