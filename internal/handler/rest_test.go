package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// MockDiaryProvider мок сервиса дневников
type MockDiaryProvider struct {
	mock.Mock
}

func (m *MockDiaryProvider) GetDiary(ctx context.Context, deviceID string, date time.Time) (*models.DiaryResponse, error) {
	args := m.Called(ctx, deviceID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiaryResponse), args.Error(1)
}

func testRouter(provider DiaryProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewRESTHandler(provider, utils.NewLogger("fatal", "text"))
	router.POST("/api/v1/diary", handler.PostDiary)
	return router
}

func postDiary(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/diary", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostDiary_OK(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	provider := new(MockDiaryProvider)
	provider.On("GetDiary", mock.Anything, "dev-1", date).Return(&models.DiaryResponse{
		Visits: []models.Visit{
			{ID: "v1", PrimaryPlaceType: "cafe", Confidence: models.ConfidenceHigh},
		},
		Journeys: []models.Journey{},
	}, nil)

	w := postDiary(t, testRouter(provider), `{"device_id":"dev-1","date":"2026-03-14"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var response models.DiaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Visits, 1)
	assert.Equal(t, "v1", response.Visits[0].ID)
	assert.False(t, response.AlreadySubmitted)

	provider.AssertExpectations(t)
}

func TestPostDiary_MissingFields(t *testing.T) {
	provider := new(MockDiaryProvider)
	router := testRouter(provider)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing date", `{"device_id":"dev-1"}`},
		{"missing device_id", `{"date":"2026-03-14"}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postDiary(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid_request")
		})
	}

	provider.AssertNotCalled(t, "GetDiary", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostDiary_InvalidDate(t *testing.T) {
	provider := new(MockDiaryProvider)

	w := postDiary(t, testRouter(provider), `{"device_id":"dev-1","date":"14.03.2026"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_date")
}

func TestPostDiary_ServiceError(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	provider := new(MockDiaryProvider)
	provider.On("GetDiary", mock.Anything, "dev-1", date).Return(nil, assert.AnError)

	w := postDiary(t, testRouter(provider), `{"device_id":"dev-1","date":"2026-03-14"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestPostDiary_EmptyDayWellFormed(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	provider := new(MockDiaryProvider)
	provider.On("GetDiary", mock.Anything, "dev-1", date).Return(&models.DiaryResponse{}, nil)

	w := postDiary(t, testRouter(provider), `{"device_id":"dev-1","date":"2026-03-14"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"visits":[]`)
	assert.Contains(t, w.Body.String(), `"journeys":[]`)
}
