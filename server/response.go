package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/discograf/discograf/errors"
)

// errorBody is the JSON error envelope returned by every endpoint. Field
// errors carry a list of messages per field, the shape the gateway decodes.
type errorBody struct {
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// fail writes err as an error envelope, mapping coded errors to their status
// and anything else to 500
func fail(c *gin.Context, err error) {
	status := errors.Code(err)
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}

	body := errorBody{
		Message: err.Error(),
		Status:  status,
	}

	var coded *errors.Error
	if errors.As(err, &coded) {
		body.Message = coded.GetMessage()
		if metadata := coded.GetMetadata(); len(metadata) > 0 {
			body.Errors = make(map[string][]string, len(metadata))
			for field, msg := range metadata {
				body.Errors[field] = []string{msg}
			}
		}
	}

	c.AbortWithStatusJSON(status, body)
}
