package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	return c, rec
}

func TestRespondSuccessDefaultsMessage(t *testing.T) {
	c, rec := newContext()
	RespondSuccess(c, http.StatusOK, nil, "")

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Operation successful", body.Message)
}

func TestRespondValidationErrorAborts(t *testing.T) {
	c, rec := newContext()
	RespondValidationError(c, "invalid phone number", "Please enter a valid 10-digit phone number.")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid phone number", body.Error)
	assert.Equal(t, "Please enter a valid 10-digit phone number.", body.Details)
}

func TestRespondInternalServerErrorWithoutDetails(t *testing.T) {
	c, rec := newContext()
	RespondInternalServerError(c, "failed to store complaint")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to store complaint"}`, rec.Body.String())
}
