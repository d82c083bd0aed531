package filter

import (
	"fmt"
	"sort"

	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// MedianFilter подавляет одиночные выбросы GPS скользящей медианой по
// картезианским смещениям. Без сглаживания один зашумленный пинг может
// разорвать одно физическое пребывание на несколько кластеров.
// Пинги без картезианских данных проходят без изменений и не участвуют
// в окнах соседей. Вход не изменяется.
type MedianFilter struct {
	config *Config
	logger *utils.Logger
}

// NewMedianFilter создает новый медианный фильтр
func NewMedianFilter(config *Config, logger *utils.Logger) *MedianFilter {
	return &MedianFilter{
		config: config,
		logger: logger,
	}
}

// Filter применяет скользящую медиану к последовательности пингов
func (f *MedianFilter) Filter(pings []models.RawPing) *Result {
	result := &Result{
		OriginalCount: len(pings),
		Pings:         pings,
	}

	// Последовательности короче окна возвращаются как есть
	if len(pings) < f.config.MedianWindow {
		return result
	}

	smoothed := make([]models.RawPing, len(pings))
	copy(smoothed, pings)

	half := f.config.MedianWindow / 2

	for i, ping := range pings {
		if !ping.Position.HasCartesian() {
			continue
		}

		start := i - half
		if start < 0 {
			start = 0
		}
		end := start + f.config.MedianWindow
		if end > len(pings) {
			end = len(pings)
		}

		var xs, ys []float64
		for _, neighbor := range pings[start:end] {
			if x, y, ok := neighbor.Position.Cartesian(); ok {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}

		// Окно из одного пинга сглаживать нечем
		if len(xs) < 2 {
			continue
		}

		medianX := median(xs)
		medianY := median(ys)
		if x, y, _ := ping.Position.Cartesian(); x != medianX || y != medianY {
			result.AdjustedCount++
		}
		smoothed[i].Position = models.NewCartesianPosition(medianX, medianY)
	}

	result.Pings = smoothed

	if result.AdjustedCount > 0 {
		f.logger.WithField("adjusted", result.AdjustedCount).Debug("Smoothed ping positions")
	}

	return result
}

// Name возвращает имя фильтра
func (f *MedianFilter) Name() string {
	return "median_filter"
}

// Description возвращает описание фильтра
func (f *MedianFilter) Description() string {
	return fmt.Sprintf("Moving median over a window of %d pings on Cartesian offsets", f.config.MedianWindow)
}

// median возвращает медиану набора значений
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 != 0 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
