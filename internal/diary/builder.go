package diary

import (
	"sort"
	"time"

	"github.com/geodiary/diary-backend/internal/filter"
	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// Result итог прогона конвейера за один день устройства
type Result struct {
	Visits   []models.Visit
	Journeys []models.Journey

	// Идентификаторы синтетических записей; нужны персистенции для
	// флага is_synthetic, клиенту не отдаются
	SyntheticVisitIDs   map[string]bool
	SyntheticJourneyIDs map[string]bool

	DroppedPings  int
	SmoothedPings int
	ClusterCount  int
}

// Builder конвейер восстановления дневника: фильтрация, кластеризация,
// скоринг, отбор, сегментация поездок и инъекция синтетики.
// Потокобезопасен: единственное разделяемое состояние — ГСЧ инъектора,
// защищенный его мьютексом.
type Builder struct {
	accuracy *filter.AccuracyFilter
	median   *filter.MedianFilter
	injector *SyntheticInjector
	logger   *utils.Logger
}

// NewBuilder создает конвейер. Нулевой injector отключает синтетические записи.
func NewBuilder(filterConfig *filter.Config, injector *SyntheticInjector, logger *utils.Logger) *Builder {
	return &Builder{
		accuracy: filter.NewAccuracyFilter(filterConfig, logger),
		median:   filter.NewMedianFilter(filterConfig, logger),
		injector: injector,
		logger:   logger,
	}
}

// Build прогоняет пинги одного дня через весь конвейер. Вход обязан
// быть упорядочен по неубыванию временных меток. Кластеризация идет по
// сглаженной последовательности, сегментация поездок — по несглаженной
// (но отфильтрованной по точности).
func (b *Builder) Build(pings []models.RawPing, date time.Time) *Result {
	accurate := b.accuracy.Filter(pings)
	smoothed := b.median.Filter(accurate.Pings)

	candidates := BuildVisits(smoothed.Pings)
	visits := SelectVisits(candidates)
	journeys := SegmentJourneys(accurate.Pings, visits)

	result := &Result{
		SyntheticVisitIDs:   make(map[string]bool),
		SyntheticJourneyIDs: make(map[string]bool),
		DroppedPings:        accurate.DroppedCount,
		SmoothedPings:       smoothed.AdjustedCount,
		ClusterCount:        len(candidates),
	}

	if b.injector != nil {
		synthetic := b.injector.GenerateVisits(visits, date)
		for _, v := range synthetic {
			result.SyntheticVisitIDs[v.ID] = true
		}
		visits = append(visits, synthetic...)

		syntheticJourneys := b.injector.GenerateJourneys(visits, result.SyntheticVisitIDs)
		for _, j := range syntheticJourneys {
			result.SyntheticJourneyIDs[j.ID] = true
		}
		journeys = append(journeys, syntheticJourneys...)
	}

	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].StartedAt.Before(visits[j].StartedAt)
	})
	sort.SliceStable(journeys, func(i, j int) bool {
		return journeys[i].StartedAt.Before(journeys[j].StartedAt)
	})

	result.Visits = visits
	result.Journeys = journeys

	b.logger.WithFields(map[string]interface{}{
		"pings":     len(pings),
		"dropped":   result.DroppedPings,
		"clusters":  result.ClusterCount,
		"visits":    len(visits),
		"journeys":  len(journeys),
		"synthetic": len(result.SyntheticVisitIDs),
	}).Debug("Diary pipeline finished")

	return result
}
