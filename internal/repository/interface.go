// Package repository реализует доступ к данным: чтение сырых пингов и
// персистенцию собранных дневников в MySQL, кэш замороженных дневников
// в Redis.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/geodiary/diary-backend/internal/models"
)

// ErrDiaryNotFound дневник за запрошенный день отсутствует
var ErrDiaryNotFound = errors.New("diary not found")

// PingStore интерфейс чтения сырых пингов
type PingStore interface {
	// Проверка соединения
	Ping(ctx context.Context) error
	Close() error

	// GetPingsForDay возвращает пинги устройства за календарный день UTC,
	// упорядоченные по возрастанию временной метки
	GetPingsForDay(ctx context.Context, deviceID string, date time.Time) ([]models.RawPing, error)
}

// DiaryStore интерфейс персистенции дневников
type DiaryStore interface {
	// GetDiary возвращает строку дневника или ErrDiaryNotFound
	GetDiary(ctx context.Context, deviceID string, date time.Time) (*models.Diary, error)

	// UpsertDiary атомарно создает или находит дневник дня и возвращает его id
	UpsertDiary(ctx context.Context, deviceID string, date time.Time) (int64, error)

	// SaveEntries транзакционно замещает записи дневника свежей сборкой.
	// Связки с пингами для синтетических записей не сохраняются.
	SaveEntries(ctx context.Context, diaryID int64, visits []models.Visit, journeys []models.Journey, syntheticVisitIDs, syntheticJourneyIDs map[string]bool) error

	// GetStoredEntries возвращает сохраненные записи дневника вместе с
	// ответами пользователя
	GetStoredEntries(ctx context.Context, diaryID int64) ([]models.StoredVisit, []models.StoredJourney, error)
}

// DiaryCache кэш замороженных (отправленных) дневников
type DiaryCache interface {
	GetSubmitted(ctx context.Context, deviceID string, date time.Time) (*models.DiaryResponse, error)
	SetSubmitted(ctx context.Context, deviceID string, date time.Time, response *models.DiaryResponse) error
	Ping(ctx context.Context) error
	Close() error
}

// Ensure implementations
var _ PingStore = (*MySQLRepository)(nil)
var _ DiaryStore = (*MySQLRepository)(nil)
var _ DiaryCache = (*RedisCache)(nil)
