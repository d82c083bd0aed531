package filter

import (
	"fmt"

	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// AccuracyFilter отбрасывает пинги с горизонтальной точностью хуже потолка.
// Пинги без данных о точности проходят без изменений.
type AccuracyFilter struct {
	config *Config
	logger *utils.Logger
}

// NewAccuracyFilter создает новый фильтр точности
func NewAccuracyFilter(config *Config, logger *utils.Logger) *AccuracyFilter {
	return &AccuracyFilter{
		config: config,
		logger: logger,
	}
}

// Filter применяет фильтр точности к последовательности пингов
func (f *AccuracyFilter) Filter(pings []models.RawPing) *Result {
	result := &Result{
		OriginalCount: len(pings),
		Pings:         make([]models.RawPing, 0, len(pings)),
	}

	for _, ping := range pings {
		if ping.HorizontalAccuracyM != nil && *ping.HorizontalAccuracyM > f.config.MaxAccuracyM {
			result.DroppedCount++
			continue
		}
		result.Pings = append(result.Pings, ping)
	}

	if result.DroppedCount > 0 {
		f.logger.WithFields(map[string]interface{}{
			"dropped":        result.DroppedCount,
			"max_accuracy_m": f.config.MaxAccuracyM,
		}).Debug("Dropped inaccurate pings")
	}

	return result
}

// Name возвращает имя фильтра
func (f *AccuracyFilter) Name() string {
	return "accuracy_filter"
}

// Description возвращает описание фильтра
func (f *AccuracyFilter) Description() string {
	return fmt.Sprintf("Drops pings with horizontal accuracy worse than %.0fm", f.config.MaxAccuracyM)
}
