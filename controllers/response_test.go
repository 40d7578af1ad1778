package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tharun-raj/washtrack-api/services"
	"github.com/tharun-raj/washtrack-api/utils"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		err          error
		wantStatus   int
		checkBody    func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "validation error carries field map",
			err:        services.NewValidationError("quantity", "must be greater than zero"),
			wantStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				errs := body["errors"].(map[string]interface{})
				assert.Contains(t, errs, "quantity")
			},
		},
		{
			name:       "not found",
			err:        &services.NotFoundError{Resource: "order", ID: 42},
			wantStatus: http.StatusNotFound,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body["message"], "order")
			},
		},
		{
			name:       "capacity conflict carries remaining",
			err:        &services.ConflictError{Message: "record is full", Remaining: 10},
			wantStatus: http.StatusConflict,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(10), body["remaining"])
			},
		},
		{
			name:       "non-capacity conflict has no remaining",
			err:        &services.ConflictError{Message: "mobile already registered", Remaining: -1},
			wantStatus: http.StatusConflict,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.NotContains(t, body, "remaining")
			},
		},
		{
			name:       "transaction failure maps to conflict",
			err:        &services.TransactionFailure{Err: errors.New("database is locked")},
			wantStatus: http.StatusConflict,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body["message"], "retry")
			},
		},
		{
			name:       "upload error",
			err:        &utils.FileUploadError{Code: "INVALID_FILE_FORMAT", Message: "Only PNG and JPEG files are allowed"},
			wantStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				errs := body["errors"].(map[string]interface{})
				assert.Contains(t, errs, "file")
			},
		},
		{
			name:       "unexpected error is a 500 with detail outside release mode",
			err:        errors.New("database exploded"),
			wantStatus: http.StatusInternalServerError,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Internal server error", body["message"])
				errs := body["errors"].(map[string]interface{})
				assert.Contains(t, errs["detail"], "database exploded")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			if tt.checkBody != nil {
				tt.checkBody(t, body)
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		raw    string
		wantID uint
		wantOK bool
	}{
		{"valid id", "42", 42, true},
		{"zero is rejected", "0", 0, false},
		{"negative is rejected", "-1", 0, false},
		{"non-numeric is rejected", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
			c.Params = gin.Params{{Key: "orderId", Value: tt.raw}}

			id, ok := parseIDParam(c, "orderId")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}
