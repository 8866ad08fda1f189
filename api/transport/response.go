package transport

import (
	"errors"

	"github.com/fastygo/taskpoints/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
// Failed writes that kept their in-memory result return it in Data next to the error.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// ErrorBody describes a failure. Cause is the wrapped low-level error, if any.
type ErrorBody struct {
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code, message string, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  &ErrorBody{Message: message},
		Meta:   meta,
	}
}

// FromError builds an error envelope for err. Errors outside the domain
// taxonomy are reported without their text.
func FromError(code string, err error, data interface{}) Envelope {
	body := &ErrorBody{Message: "internal error"}
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		body.Message = dErr.Message
		if dErr.Err != nil {
			body.Cause = dErr.Err.Error()
		}
	}
	return Envelope{
		Status: "error",
		Code:   code,
		Data:   data,
		Error:  body,
	}
}
