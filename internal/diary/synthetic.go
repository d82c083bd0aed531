package diary

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/internal/places"
)

// Параметры генерации синтетических записей
const (
	minSlotDuration  = 10 * time.Minute
	minVisitDuration = 5 * time.Minute
	maxVisitDuration = 60 * time.Minute

	// Доля свободного слота, которую может занять синтетический визит
	maxSlotShare = 0.7

	maxSyntheticVisits = 3
)

// timeSlot свободный промежуток дня между реальными визитами
type timeSlot struct {
	start time.Time
	end   time.Time
}

func (s timeSlot) duration() time.Duration {
	return s.end.Sub(s.start)
}

// SyntheticInjector генерирует синтетические (red herring) визиты и
// поездки в свободных промежутках дня. Единственный источник
// случайности движка; ГСЧ инжектируется для воспроизводимых тестов.
type SyntheticInjector struct {
	mu           sync.Mutex
	rng          *rand.Rand
	dayStartHour int
	dayEndHour   int
}

// NewSyntheticInjector создает инъектор с заданным ГСЧ и границами
// дневного окна (часы UTC)
func NewSyntheticInjector(rng *rand.Rand, dayStartHour, dayEndHour int) *SyntheticInjector {
	return &SyntheticInjector{
		rng:          rng,
		dayStartHour: dayStartHour,
		dayEndHour:   dayEndHour,
	}
}

// GenerateVisits генерирует от одного до трех синтетических визитов в
// свободных слотах дня. Днем без реальных визитов синтетика не
// полагается: пустой дневник должен остаться пустым.
func (s *SyntheticInjector) GenerateVisits(realVisits []models.Visit, date time.Time) []models.Visit {
	if len(realVisits) == 0 {
		return nil
	}

	// ГСЧ не потокобезопасен, инъектор разделяется обработчиками запросов
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := s.freeSlots(realVisits, date)
	if len(slots) == 0 {
		return nil
	}

	count := 1 + s.rng.Intn(maxSyntheticVisits)
	if count > len(slots) {
		count = len(slots)
	}

	s.rng.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})

	visits := make([]models.Visit, 0, count)
	for _, slot := range slots[:count] {
		visits = append(visits, s.syntheticVisit(slot, realVisits))
	}
	return visits
}

// freeSlots находит свободные промежутки не короче minSlotDuration:
// между соседними визитами, от начала дневного окна до первого визита
// и от последнего визита до конца окна.
func (s *SyntheticInjector) freeSlots(visits []models.Visit, date time.Time) []timeSlot {
	sorted := make([]models.Visit, len(visits))
	copy(sorted, visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), s.dayStartHour, 0, 0, 0, time.UTC)
	dayEnd := time.Date(date.Year(), date.Month(), date.Day(), s.dayEndHour, 0, 0, 0, time.UTC)

	var slots []timeSlot

	if sorted[0].StartedAt.Sub(dayStart) >= minSlotDuration {
		slots = append(slots, timeSlot{start: dayStart, end: sorted[0].StartedAt})
	}

	for i := 1; i < len(sorted); i++ {
		gap := timeSlot{start: sorted[i-1].EndedAt, end: sorted[i].StartedAt}
		if gap.duration() >= minSlotDuration {
			slots = append(slots, gap)
		}
	}

	if dayEnd.Sub(sorted[len(sorted)-1].EndedAt) >= minSlotDuration {
		slots = append(slots, timeSlot{start: sorted[len(sorted)-1].EndedAt, end: dayEnd})
	}

	return slots
}

// syntheticVisit строит один синтетический визит внутри слота
func (s *SyntheticInjector) syntheticVisit(slot timeSlot, realVisits []models.Visit) models.Visit {
	maxDur := time.Duration(float64(slot.duration()) * maxSlotShare)
	if maxDur > maxVisitDuration {
		maxDur = maxVisitDuration
	}
	minDur := minVisitDuration
	if minDur > maxDur {
		minDur = maxDur
	}

	duration := minDur + time.Duration(s.rng.Float64()*float64(maxDur-minDur))

	// Визит ложится вблизи середины слота со случайным смещением
	margin := (slot.duration() - duration) / 2
	offset := time.Duration(float64(margin) * (0.3 + s.rng.Float64()*0.4))
	start := slot.start.Add(offset)
	end := start.Add(duration)

	durS := durationSeconds(start, end)

	pingCount := int(durS / 300)
	if pingCount < 2 {
		pingCount = 2
	}

	return models.Visit{
		ID:               s.syntheticID(),
		MemberPingIDs:    []string{},
		StartedAt:        start,
		EndedAt:          end,
		DurationS:        durS,
		PrimaryPlaceType: s.pickPlaceType(realVisits),
		OtherPlaceTypes:  []string{},
		DominantMotion:   models.MotionSample{Motion: models.MotionStill, Confidence: models.MotionConfidenceMedium},
		Confidence:       s.pickVisitConfidence(),
		VisitType:        models.VisitTypeVisit,
		PingCount:        pingCount,
	}
}

// pickPlaceType с равной вероятностью переиспользует тип места из
// реальных визитов дня или берет случайный из каталога. Визиты без
// типа места в пул переиспользования не попадают.
func (s *SyntheticInjector) pickPlaceType(realVisits []models.Visit) string {
	candidates := make([]string, 0, len(realVisits))
	for _, v := range realVisits {
		if v.PrimaryPlaceType != "" {
			candidates = append(candidates, v.PrimaryPlaceType)
		}
	}

	catalog := places.Catalog()
	if len(candidates) > 0 && s.rng.Float64() < 0.5 {
		return candidates[s.rng.Intn(len(candidates))]
	}
	return catalog[s.rng.Intn(len(catalog))]
}

// pickVisitConfidence распределение уверенности 50/35/15, смещенное к
// high: убедительная ложная запись должна выглядеть достоверно
func (s *SyntheticInjector) pickVisitConfidence() models.Confidence {
	r := s.rng.Float64()
	switch {
	case r < 0.5:
		return models.ConfidenceHigh
	case r < 0.85:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// GenerateJourneys генерирует соединительные поездки вокруг
// синтетических визитов: до двух на визит, к хронологическим соседям в
// объединенном списке. Дубликаты пар (from,to) отбрасываются.
func (s *SyntheticInjector) GenerateJourneys(allVisits []models.Visit, syntheticIDs map[string]bool) []models.Journey {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]models.Visit, len(allVisits))
	copy(sorted, allVisits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})

	var journeys []models.Journey
	seen := make(map[string]bool)

	for i, v := range sorted {
		if !syntheticIDs[v.ID] {
			continue
		}

		if i > 0 {
			if j, ok := s.connectingJourney(&sorted[i-1], &sorted[i]); ok {
				key := j.FromVisitID + "|" + j.ToVisitID
				if !seen[key] {
					seen[key] = true
					journeys = append(journeys, j)
				}
			}
		}
		if i < len(sorted)-1 {
			if j, ok := s.connectingJourney(&sorted[i], &sorted[i+1]); ok {
				key := j.FromVisitID + "|" + j.ToVisitID
				if !seen[key] {
					seen[key] = true
					journeys = append(journeys, j)
				}
			}
		}
	}

	return journeys
}

// connectingJourney строит поездку между соседними визитами, если
// между ними есть положительный промежуток
func (s *SyntheticInjector) connectingJourney(from, to *models.Visit) (models.Journey, bool) {
	gapS := durationSeconds(from.EndedAt, to.StartedAt)
	if gapS <= 0 {
		return models.Journey{}, false
	}

	transport := s.pickTransport()

	pingCount := int(gapS / 180)
	if pingCount < 1 {
		pingCount = 1
	}

	return models.Journey{
		ID:               s.syntheticID(),
		MemberPingIDs:    []string{},
		FromVisitID:      from.ID,
		ToVisitID:        to.ID,
		PrimaryTransport: transport,
		TransportProportions: map[models.Motion]float64{
			transport:            0.85,
			models.MotionUnknown: 0.15,
		},
		StartedAt:  from.EndedAt,
		EndedAt:    to.StartedAt,
		DurationS:  gapS,
		PingCount:  pingCount,
		Confidence: models.ConfidenceMedium,
	}, true
}

// pickTransport распределение транспорта 40/40/15/5
func (s *SyntheticInjector) pickTransport() models.Motion {
	r := s.rng.Float64()
	switch {
	case r < 0.4:
		return models.MotionWalking
	case r < 0.8:
		return models.MotionAutomotive
	case r < 0.95:
		return models.MotionCycling
	default:
		return models.MotionRunning
	}
}

// syntheticID генерирует идентификатор в зарезервированном пространстве syn_
func (s *SyntheticInjector) syntheticID() string {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}
	return models.SyntheticIDPrefix + id.String()
}
