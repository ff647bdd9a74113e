package spacetraders

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is returned for any non-2xx response from the API.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("spacetraders: %d (code %d): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("spacetraders: %d: %s", e.Status, e.Message)
}

// decodeAPIError pulls error.message and error.code out of an error body.
// Bodies that are not the documented envelope fall back to the raw text.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
			apiErr.Message = msg.String()
		}
		apiErr.Code = int(gjson.GetBytes(body, "error.code").Int())
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = "unexpected status"
	}
	return apiErr
}
