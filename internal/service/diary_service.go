// Package service содержит оркестрацию запроса дневника: короткое
// замыкание на отправленные дни, прогон конвейера и best-effort
// персистенцию результата.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/geodiary/diary-backend/internal/diary"
	"github.com/geodiary/diary-backend/internal/metrics"
	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/internal/repository"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// DiaryService обслуживает запросы восстановления дневника
type DiaryService struct {
	pings   repository.PingStore
	diaries repository.DiaryStore
	cache   repository.DiaryCache
	builder *diary.Builder
	logger  *utils.Logger
}

// NewDiaryService создает сервис дневников. Нулевой cache отключает
// кэширование замороженных дневников.
func NewDiaryService(pings repository.PingStore, diaries repository.DiaryStore, cache repository.DiaryCache, builder *diary.Builder, logger *utils.Logger) *DiaryService {
	return &DiaryService{
		pings:   pings,
		diaries: diaries,
		cache:   cache,
		builder: builder,
		logger:  logger,
	}
}

// GetDiary возвращает дневник устройства за день. Уже отправленный
// день заморожен и возвращается из хранилища без пересборки; иначе
// дневник собирается из пингов и сохраняется best-effort.
func (s *DiaryService) GetDiary(ctx context.Context, deviceID string, date time.Time) (*models.DiaryResponse, error) {
	if frozen := s.submittedResponse(ctx, deviceID, date); frozen != nil {
		return frozen, nil
	}

	pings, err := s.pings.GetPingsForDay(ctx, deviceID, date)
	if err != nil {
		return nil, err
	}
	metrics.PingsProcessed.Add(float64(len(pings)))

	start := time.Now()
	result := s.builder.Build(pings, date)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	s.recordPipelineMetrics(result)
	s.persist(ctx, deviceID, date, result)

	return &models.DiaryResponse{
		Visits:   result.Visits,
		Journeys: result.Journeys,
	}, nil
}

// submittedResponse возвращает замороженный дневник отправленного дня
// или nil, если день еще открыт. Ошибки хранилища здесь не фатальны:
// при сомнении дневник пересобирается.
func (s *DiaryService) submittedResponse(ctx context.Context, deviceID string, date time.Time) *models.DiaryResponse {
	if s.cache != nil {
		cached, err := s.cache.GetSubmitted(ctx, deviceID, date)
		if err != nil {
			s.logger.WithField("error", err).Warn("Submitted diary cache lookup failed")
		} else if cached != nil {
			metrics.SubmittedCacheHits.Inc()
			return cached
		} else {
			metrics.SubmittedCacheMisses.Inc()
		}
	}

	record, err := s.diaries.GetDiary(ctx, deviceID, date)
	if errors.Is(err, repository.ErrDiaryNotFound) {
		return nil
	}
	if err != nil {
		s.logger.WithField("error", err).Warn("Diary lookup failed, rebuilding")
		return nil
	}
	if !record.Submitted {
		return nil
	}

	storedVisits, storedJourneys, err := s.diaries.GetStoredEntries(ctx, record.ID)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"diary_id": record.ID,
			"error":    err,
		}).Error("Failed to load frozen diary entries")
		return nil
	}

	response := &models.DiaryResponse{
		AlreadySubmitted: true,
		SubmittedAt:      record.SubmittedAt,
		Visits:           make([]models.Visit, 0, len(storedVisits)),
		Journeys:         make([]models.Journey, 0, len(storedJourneys)),
	}
	for _, v := range storedVisits {
		response.Visits = append(response.Visits, v.Visit)
	}
	for _, j := range storedJourneys {
		response.Journeys = append(response.Journeys, j.Journey)
	}

	if s.cache != nil {
		if err := s.cache.SetSubmitted(ctx, deviceID, date, response); err != nil {
			s.logger.WithField("error", err).Warn("Failed to cache submitted diary")
		}
	}

	return response
}

// persist сохраняет сборку best-effort: отказ персистенции логируется
// и считается, но никогда не валит ответ клиенту
func (s *DiaryService) persist(ctx context.Context, deviceID string, date time.Time, result *diary.Result) {
	if len(result.Visits) == 0 && len(result.Journeys) == 0 {
		return
	}

	diaryID, err := s.diaries.UpsertDiary(ctx, deviceID, date)
	if err != nil {
		metrics.PersistenceFailures.Inc()
		s.logger.WithFields(map[string]interface{}{
			"device_id": deviceID,
			"date":      date.Format("2006-01-02"),
			"error":     err,
		}).Error("Failed to upsert diary")
		return
	}

	err = s.diaries.SaveEntries(ctx, diaryID, result.Visits, result.Journeys, result.SyntheticVisitIDs, result.SyntheticJourneyIDs)
	if err != nil {
		metrics.PersistenceFailures.Inc()
		s.logger.WithFields(map[string]interface{}{
			"diary_id": diaryID,
			"error":    err,
		}).Error("Failed to save diary entries")
	}
}

func (s *DiaryService) recordPipelineMetrics(result *diary.Result) {
	metrics.PingsDropped.Add(float64(result.DroppedPings))

	for _, v := range result.Visits {
		if result.SyntheticVisitIDs[v.ID] {
			metrics.SyntheticEntriesInjected.WithLabelValues("visit").Inc()
			continue
		}
		metrics.VisitsBuilt.WithLabelValues(string(v.Confidence)).Inc()
	}
	for _, j := range result.Journeys {
		if result.SyntheticJourneyIDs[j.ID] {
			metrics.SyntheticEntriesInjected.WithLabelValues("journey").Inc()
			continue
		}
		metrics.JourneysBuilt.WithLabelValues(string(j.Confidence)).Inc()
	}
}
