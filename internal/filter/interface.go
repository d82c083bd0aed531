// Package filter реализует предобработку последовательности пингов
// перед кластеризацией: отбрасывание неточных фиксаций и подавление
// GPS-дрожания скользящей медианой.
package filter

import "github.com/geodiary/diary-backend/internal/models"

// Result результат применения фильтра
type Result struct {
	OriginalCount int               `json:"original_count"`
	DroppedCount  int               `json:"dropped_count"`
	AdjustedCount int               `json:"adjusted_count"`
	Pings         []models.RawPing  `json:"pings"`
}

// PingFilter интерфейс для фильтров пингов
type PingFilter interface {
	// Filter применяет фильтр к последовательности пингов.
	// Входной срез не изменяется.
	Filter(pings []models.RawPing) *Result

	// Name возвращает имя фильтра
	Name() string

	// Description возвращает описание фильтра
	Description() string
}

// Config конфигурация фильтров
type Config struct {
	// Потолок горизонтальной точности GPS в метрах
	MaxAccuracyM float64 `json:"max_accuracy_m"`

	// Размер окна скользящей медианы (центрированное, усекается на краях)
	MedianWindow int `json:"median_window"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		MaxAccuracyM: 100,
		MedianWindow: 3,
	}
}
