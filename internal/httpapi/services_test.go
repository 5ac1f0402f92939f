package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"qms/shift-service/internal/cache"
	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

const testServiceID = "4d2e1f0a-9b8c-4d7e-a6f5-3c2b1a0d9e54"

func TestCreateServiceValidatesCode(t *testing.T) {
	handler := newTestHandler(&fakeStore{}, cache.Nop{})

	rec := serve(handler, authorize(t, newRequest(t, http.MethodPost, "/services", map[string]string{
		"name": "Cashier",
		"code": "TOO-LONG-CODE",
	})))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "code")

	rec = serve(handler, authorize(t, newRequest(t, http.MethodPost, "/services", map[string]string{
		"name": "Cashier",
		"code": "CSH",
	})))
	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data struct {
			Name string `json:"name"`
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CSH", body.Data.Code)
}

func TestShowService(t *testing.T) {
	st := &fakeStore{
		getService: func(_ context.Context, serviceID string) (models.Service, bool, error) {
			if serviceID != testServiceID {
				return models.Service{}, false, nil
			}
			return models.Service{ServiceID: testServiceID, Name: "Cashier", Code: "CSH"}, true, nil
		},
	}
	handler := newTestHandler(st, cache.Nop{})

	rec := serve(handler, authorize(t, newRequest(t, http.MethodGet, "/services/"+testServiceID, nil)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(handler, authorize(t, newRequest(t, http.MethodGet, "/services/"+testRoomID, nil)))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "service_not_found", decodeError(t, rec).Code)
}

func TestListServicesIsPublic(t *testing.T) {
	handler := newTestHandler(&fakeStore{}, cache.Nop{})
	rec := serve(handler, newRequest(t, http.MethodGet, "/services", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateModuleTypeRequiresName(t *testing.T) {
	handler := newTestHandler(&fakeStore{}, cache.Nop{})

	rec := serve(handler, authorize(t, newRequest(t, http.MethodPost, "/module-types", map[string]string{})))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "name")

	rec = serve(handler, authorize(t, newRequest(t, http.MethodPost, "/module-types", map[string]string{"name": "Window"})))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateAttendantHashesPassword(t *testing.T) {
	var captured store.AttendantInput
	st := &fakeStore{
		createAttendant: func(_ context.Context, input store.AttendantInput) (models.Attendant, error) {
			captured = input
			return models.Attendant{AttendantID: "att-2", Name: input.Name, Email: input.Email, Enabled: input.Enabled}, nil
		},
	}
	handler := newTestHandler(st, cache.Nop{})

	rec := serve(handler, authorize(t, newRequest(t, http.MethodPost, "/attendants", map[string]string{
		"name":     "Ana",
		"email":    "not-an-email",
		"dni":      "123",
		"password": "short",
	})))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	rec = serve(handler, authorize(t, newRequest(t, http.MethodPost, "/attendants", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"dni":      "123",
		"password": "correct horse",
	})))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, captured.Enabled)
	assert.NotEqual(t, "correct horse", captured.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("correct horse")))
	assert.NotContains(t, rec.Body.String(), captured.PasswordHash)
}
