package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type titleRequest struct {
	Title string `json:"title" validate:"required,min=4,max=140"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
		invalid bool
	}{
		{name: "ok", body: `{"code":"a1b2c3"}`},
		{name: "malformed", body: `{"code":`, invalid: true},
		{name: "missing", body: `{}`, wantMsg: "code is required"},
		{name: "wrong length", body: `{"code":"abc"}`, wantMsg: "code must be exactly 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var req codeRequest
			err := DecodeJSON(r, &req)

			switch {
			case tt.invalid:
				assert.ErrorIs(t, err, ErrInvalidBody)
			case tt.wantMsg != "":
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "code", verr.Field)
				assert.Equal(t, tt.wantMsg, verr.Message)
			default:
				require.NoError(t, err)
				assert.Equal(t, "a1b2c3", req.Code)
			}
		})
	}
}

func TestValidate_MinMax(t *testing.T) {
	err := Validate(&titleRequest{Title: "abc"})
	assert.EqualError(t, err, "title must be at least 4 characters")

	err = Validate(&titleRequest{Title: strings.Repeat("x", 141)})
	assert.EqualError(t, err, "title must be at most 140 characters")

	// Lengths count characters, not bytes.
	assert.NoError(t, Validate(&titleRequest{Title: "ёжик"}))
}

func TestRespondDecodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondDecodeError(rec, &ValidationError{Field: "code", Message: "code is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeValidationError, body.Code)
	assert.Equal(t, "code is required", body.Error)

	rec = httptest.NewRecorder()
	RespondDecodeError(rec, ErrInvalidBody)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeInvalidRequestBody, body.Code)
}

func TestRespondInternalError(t *testing.T) {
	cause := errors.New("connection refused")

	rec := httptest.NewRecorder()
	RespondInternalError(rec, "failed to load todos", cause, true)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "connection refused", body.Detail)

	rec = httptest.NewRecorder()
	RespondInternalError(rec, "failed to load todos", cause, false)
	body = ErrorResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Empty(t, body.Detail)
	assert.Equal(t, CodeInternalError, body.Code)
}
