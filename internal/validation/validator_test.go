package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/validation"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" validate:"required,min=4,max=1024"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

type markerRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Count     int     `json:"count" validate:"min=0,max=1000"`
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeValidation, de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())
	details, ok := de.Details.(map[string]string)
	require.True(t, ok, "details should be a field map")
	return details
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(registerRequest{Username: "грибник_42", Password: "1234"}))
	assert.NoError(t, v.Validate(markerRequest{Latitude: 55.75, Longitude: 37.61, Count: 3}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{"missing username", registerRequest{Password: "1234"}, "username", "is required"},
		{"short username", registerRequest{Username: "ab", Password: "1234"}, "username", "must be at least 3 characters"},
		{"username charset", registerRequest{Username: "bad name!", Password: "1234"}, "username", "may contain only"},
		{"short password", registerRequest{Username: "alice", Password: "123"}, "password", "at least 4 characters"},
		{"long password", registerRequest{Username: "alice", Password: strings.Repeat("x", 1025)}, "password", "must not exceed 1024 characters"},
		{"bad email", registerRequest{Username: "alice", Password: "1234", Email: "nope"}, "email", "valid email"},
		{"latitude", markerRequest{Latitude: 91}, "latitude", "latitude between"},
		{"longitude", markerRequest{Longitude: -181}, "longitude", "longitude between"},
		{"negative count", markerRequest{Count: -1}, "count", "must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := fieldErrors(t, v.Validate(tt.req))
			assert.Contains(t, details[tt.wantField], tt.wantMsg)
		})
	}
}
