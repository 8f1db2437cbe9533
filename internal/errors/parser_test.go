package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		context string
		code    string
		message string
	}{
		{"nil", nil, "", InternalServerError, "Something went wrong"},
		{"not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "reconciliation", ResourceNotFound, "Reconciliation record not found"},
		{"sqlite unique", fmt.Errorf("UNIQUE constraint failed: placed_orders.payment_intent_id"), "order", ResourceAlreadyExists, "An order already exists for this payment"},
		{"postgres unique", fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_x" (SQLSTATE 23505)`), "", ResourceAlreadyExists, "Resource already exists"},
		{"other", fmt.Errorf("boom"), "", InternalServerError, "Something went wrong. Please try again later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, tt.message, info.Message)
		})
	}
}

func TestStorageError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing row", gorm.ErrRecordNotFound, http.StatusNotFound, ResourceNotFound},
		{"duplicate", fmt.Errorf("UNIQUE constraint failed: reconciliation_records.payment_intent_id"), http.StatusConflict, ResourceAlreadyExists},
		{"locked", fmt.Errorf("database is locked"), http.StatusServiceUnavailable, InternalDatabaseError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			StorageError(c, tt.err, "reconciliation")

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
		})
	}
}
