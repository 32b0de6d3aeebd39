package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/http/response"
)

// EnvelopeVersion is the response envelope format version shared with
// handlers that write through the response package.
const EnvelopeVersion = response.EnvelopeVersion

// APIEnvelope wraps every successful huma response, and plain errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps an APIError so clients can branch on the code.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in
// the versioned envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if err, ok := v.(error); ok {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return EnvelopeTransformer(nil, status, apiErr)
		}
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: len(status) > 0 && status[0] == '2',
		Data:    v,
	}, nil
}
