package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/internal/service"
)

type fakeAvailabilityStore struct {
	slots map[string]*models.AvailabilitySlot
}

func newFakeAvailabilityStore(slots ...*models.AvailabilitySlot) *fakeAvailabilityStore {
	store := &fakeAvailabilityStore{slots: make(map[string]*models.AvailabilitySlot)}
	for _, slot := range slots {
		store.slots[slot.ID] = slot
	}
	return store
}

func (f *fakeAvailabilityStore) ListActive(_ context.Context, filter models.AvailabilityFilter) ([]models.AvailabilitySlot, error) {
	var out []models.AvailabilitySlot
	for _, slot := range f.slots {
		if filter.TeacherID != "" && slot.TeacherID != filter.TeacherID {
			continue
		}
		if filter.DayOfWeek != nil && slot.DayOfWeek != *filter.DayOfWeek {
			continue
		}
		out = append(out, *slot)
	}
	return out, nil
}

func (f *fakeAvailabilityStore) FindByID(_ context.Context, id string) (*models.AvailabilitySlot, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeAvailabilityStore) Create(_ context.Context, slot *models.AvailabilitySlot) error {
	f.slots[slot.ID] = slot
	return nil
}

func (f *fakeAvailabilityStore) Update(_ context.Context, slot *models.AvailabilitySlot) error {
	f.slots[slot.ID] = slot
	return nil
}

func (f *fakeAvailabilityStore) Delete(_ context.Context, id string) error {
	delete(f.slots, id)
	return nil
}

func availabilityRouter(store *fakeAvailabilityStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewAvailabilityService(store, nil, nil)
	h := NewAvailabilityHandler(svc, nil)

	router := gin.New()
	router.GET("/availability", h.List)
	router.GET("/availability/:id", h.Get)
	router.POST("/availability", h.Create)
	router.PUT("/availability/:id", h.Update)
	router.DELETE("/availability/:id", h.Delete)
	return router
}

func performRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func storedSlot() *models.AvailabilitySlot {
	return &models.AvailabilitySlot{
		ID:          "av-1",
		TeacherID:   "t-1",
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "10:00",
		SessionType: models.SessionOneToOne,
		MaxStudents: 1,
		IsActive:    true,
	}
}

func TestAvailabilityHandlerList(t *testing.T) {
	router := availabilityRouter(newFakeAvailabilityStore(storedSlot()))

	resp := performRequest(router, http.MethodGet, "/availability?teacherId=t-1", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"av-1"`)

	resp = performRequest(router, http.MethodGet, "/availability?dayOfWeek=9", nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "dayOfWeek must be between 0 and 6")
}

func TestAvailabilityHandlerGet(t *testing.T) {
	router := availabilityRouter(newFakeAvailabilityStore(storedSlot()))

	resp := performRequest(router, http.MethodGet, "/availability/av-1", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(router, http.MethodGet, "/availability/av-missing", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "NOT_FOUND")
}

func TestAvailabilityHandlerCreate(t *testing.T) {
	store := newFakeAvailabilityStore()
	router := availabilityRouter(store)

	payload, err := json.Marshal(gin.H{
		"teacherId":   "t-1",
		"dayOfWeek":   2,
		"startTime":   "14:00",
		"endTime":     "15:00",
		"sessionType": "GROUP",
		"maxStudents": 5,
	})
	require.NoError(t, err)

	resp := performRequest(router, http.MethodPost, "/availability", payload)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Len(t, store.slots, 1)
}

func TestAvailabilityHandlerCreateRejectsInvertedTimes(t *testing.T) {
	router := availabilityRouter(newFakeAvailabilityStore())

	payload, err := json.Marshal(gin.H{
		"teacherId":   "t-1",
		"dayOfWeek":   2,
		"startTime":   "15:00",
		"endTime":     "14:00",
		"sessionType": "ONE_TO_ONE",
	})
	require.NoError(t, err)

	resp := performRequest(router, http.MethodPost, "/availability", payload)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "startTime must be before endTime")
}

func TestAvailabilityHandlerUpdatePatchesFields(t *testing.T) {
	store := newFakeAvailabilityStore(storedSlot())
	router := availabilityRouter(store)

	payload, err := json.Marshal(gin.H{"startTime": "11:00", "endTime": "12:00"})
	require.NoError(t, err)

	resp := performRequest(router, http.MethodPut, "/availability/av-1", payload)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "11:00", store.slots["av-1"].StartTime)
	assert.Equal(t, 1, store.slots["av-1"].DayOfWeek, "unspecified fields keep their values")
}

func TestAvailabilityHandlerDelete(t *testing.T) {
	store := newFakeAvailabilityStore(storedSlot())
	router := availabilityRouter(store)

	resp := performRequest(router, http.MethodDelete, "/availability/av-1", nil)
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, store.slots)

	resp = performRequest(router, http.MethodDelete, "/availability/av-1", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
