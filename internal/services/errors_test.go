package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorsCollects(t *testing.T) {
	v := ValidationErrors{}
	assert.NoError(t, v.Err())

	v.Add("capacity", "Capacity must be between 1 and 10")
	v.Add("gender", "Gender must be male or female")
	v.Add("capacity", "ignored second message")

	err := v.Err()
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	assert.Equal(t, []string{"Capacity must be between 1 and 10", "Gender must be male or female"}, appErr.Messages())
}

func TestAsAppErrorHidesPersistenceDetail(t *testing.T) {
	err := asAppError(errors.New("pq: relation rooms does not exist"))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindPersistence, appErr.Kind)
	assert.Equal(t, genericPersistenceMessage, appErr.Message)
	assert.NotContains(t, appErr.Message, "pq:")

	original := newError(KindConflict, "room_full", "Room is full")
	assert.Same(t, original, asAppError(original))
	assert.Nil(t, asAppError(nil))
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, newError(KindGatewayTimeout, "x", "x").StatusCode())
	assert.Equal(t, http.StatusBadGateway, newError(KindGatewayUnavailable, "x", "x").StatusCode())
	assert.Equal(t, http.StatusPaymentRequired, newError(KindPaymentFailed, "x", "x").StatusCode())
	assert.Equal(t, http.StatusConflict, newError(KindConflict, "x", "x").StatusCode())
	assert.Equal(t, http.StatusForbidden, newError(KindAuthorization, "x", "x").StatusCode())
}
