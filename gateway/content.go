package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/discograf/discograf/errors"
)

// Common Content-Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// apiError is the structured error body returned by the API for 4xx/5xx
type apiError struct {
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

const genericErrorMessage = "request could not be processed"

// decodeError converts a non-2xx response into an *errors.Error. The server's
// message is surfaced verbatim when the body is structured, otherwise a
// generic fallback applies.
func decodeError(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.New(resp.StatusCode, genericErrorMessage)
	}

	var ae apiError
	if err := json.Unmarshal(body, &ae); err != nil || ae.Message == "" {
		return errors.New(resp.StatusCode, genericErrorMessage)
	}

	e := errors.New(resp.StatusCode, "%s", ae.Message)
	if len(ae.Errors) > 0 {
		meta := make(map[string]string, len(ae.Errors))
		for field, msgs := range ae.Errors {
			if len(msgs) > 0 {
				meta[field] = msgs[0]
			}
		}
		e = e.WithMetadata(meta)
	}

	return e
}
