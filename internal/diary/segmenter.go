package diary

import (
	"math"
	"sort"

	"github.com/geodiary/diary-backend/internal/models"
)

// Веса сигналов и пороги балла поездки
const (
	dominanceWeight = 0.40
	densityWeight   = 0.35
	anchorWeight    = 0.25

	journeyHighThreshold   = 0.75
	journeyMediumThreshold = 0.50
)

// expectedIntervalS ожидаемый интервал между пингами по транспортному
// режиму, секунд. Используется для оценки плотности выборки.
var expectedIntervalS = map[models.Motion]float64{
	models.MotionWalking:    120,
	models.MotionRunning:    120,
	models.MotionCycling:    420,
	models.MotionAutomotive: 600,
}

const defaultIntervalS = 300.0

// speedRangeKmh правдоподобный диапазон средней скорости по режиму, км/ч
var speedRangeKmh = map[models.Motion]struct{ min, max float64 }{
	models.MotionWalking:    {0, 15},
	models.MotionRunning:    {0, 25},
	models.MotionCycling:    {0, 60},
	models.MotionAutomotive: {3, 200},
}

// SegmentJourneys строит поездки между последовательными якорными
// визитами (уверенность ≥ medium). Пинги разрыва берутся из
// несглаженной последовательности: медианный фильтр размазывает
// короткие переходы, которые сегментация как раз должна увидеть.
// Сегмент рвется на каждой смене активного режима; still/unknown
// поглощаются открытым сегментом, ведущие пропускаются.
func SegmentJourneys(pings []models.RawPing, visits []models.Visit) []models.Journey {
	anchors := make([]models.Visit, 0, len(visits))
	for _, v := range visits {
		if v.Anchor() {
			anchors = append(anchors, v)
		}
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].StartedAt.Before(anchors[j].StartedAt)
	})

	var journeys []models.Journey
	for i := 1; i < len(anchors); i++ {
		from := anchors[i-1]
		to := anchors[i]
		if !to.StartedAt.After(from.EndedAt) {
			continue
		}

		var gap []models.RawPing
		for _, p := range pings {
			if p.Timestamp.After(from.EndedAt) && p.Timestamp.Before(to.StartedAt) {
				gap = append(gap, p)
			}
		}

		for _, segment := range splitByMotion(gap) {
			journeys = append(journeys, buildJourney(segment, &from, &to))
		}
	}

	return journeys
}

// splitByMotion разбивает пинги разрыва на сегменты по активному
// транспортному режиму
func splitByMotion(gap []models.RawPing) [][]models.RawPing {
	var segments [][]models.RawPing
	var current []models.RawPing
	currentMode := models.MotionUnknown

	for _, p := range gap {
		mode := p.Motion.Motion
		if !mode.Active() {
			// Пассивный пинг поглощается открытым сегментом
			if len(current) > 0 {
				current = append(current, p)
			}
			continue
		}

		if len(current) == 0 {
			current = []models.RawPing{p}
			currentMode = mode
			continue
		}

		if mode == currentMode {
			current = append(current, p)
		} else {
			segments = append(segments, current)
			current = []models.RawPing{p}
			currentMode = mode
		}
	}

	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// buildJourney строит поездку из сегмента пингов между двумя якорями
func buildJourney(segment []models.RawPing, from, to *models.Visit) models.Journey {
	first := segment[0]
	last := segment[len(segment)-1]
	durationS := durationSeconds(first.Timestamp, last.Timestamp)

	memberIDs := make([]string, len(segment))
	for i, p := range segment {
		memberIDs[i] = p.ID
	}

	primary := primaryTransport(segment)
	proportions := transportProportions(segment)
	confidence := journeyConfidence(segment, primary, proportions, durationS, from, to)

	return models.Journey{
		ID:                   first.ID,
		MemberPingIDs:        memberIDs,
		FromVisitID:          from.ID,
		ToVisitID:            to.ID,
		PrimaryTransport:     primary,
		TransportProportions: proportions,
		StartedAt:            first.Timestamp,
		EndedAt:              last.Timestamp,
		DurationS:            durationS,
		PingCount:            len(segment),
		Confidence:           confidence,
	}
}

// primaryTransport самый частый активный режим сегмента; при равенстве
// побеждает встретившийся раньше
func primaryTransport(segment []models.RawPing) models.Motion {
	counts := make(map[models.Motion]int)
	var order []models.Motion
	for _, p := range segment {
		mode := p.Motion.Motion
		if !mode.Active() {
			continue
		}
		if counts[mode] == 0 {
			order = append(order, mode)
		}
		counts[mode]++
	}

	if len(order) == 0 {
		return models.MotionUnknown
	}

	best := order[0]
	for _, mode := range order[1:] {
		if counts[mode] > counts[best] {
			best = mode
		}
	}
	return best
}

// transportProportions доли режимов движения в сегменте, округленные
// до двух знаков
func transportProportions(segment []models.RawPing) map[models.Motion]float64 {
	counts := make(map[models.Motion]int)
	for _, p := range segment {
		counts[p.Motion.Motion]++
	}

	total := float64(len(segment))
	proportions := make(map[models.Motion]float64, len(counts))
	for mode, count := range counts {
		proportions[mode] = math.Round(float64(count)/total*100) / 100
	}
	return proportions
}

// journeyConfidence вычисляет уверенность поездки из доминирования
// режима, плотности выборки и качества якорей, со штрафом за
// неправдоподобную среднюю скорость.
func journeyConfidence(segment []models.RawPing, primary models.Motion, proportions map[models.Motion]float64, durationS int64, from, to *models.Visit) models.Confidence {
	dominance := dominanceScore(proportions[primary])
	density := densityScore(len(segment), primary, durationS)
	anchor := (from.Confidence.Score() + to.Confidence.Score()) / 2

	score := dominance*dominanceWeight + density*densityWeight + anchor*anchorWeight

	if !plausibleSpeed(segment, primary, durationS) {
		score *= 0.5
	}

	switch {
	case score >= journeyHighThreshold:
		return models.ConfidenceHigh
	case score >= journeyMediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// dominanceScore балл доли доминирующего режима
func dominanceScore(share float64) float64 {
	switch {
	case share >= 0.8:
		return 1.0
	case share >= 0.6:
		return 0.75
	default:
		return 0.5
	}
}

// densityScore балл плотности выборки относительно ожидаемого
// интервала пингов для режима
func densityScore(count int, primary models.Motion, durationS int64) float64 {
	interval, ok := expectedIntervalS[primary]
	if !ok {
		interval = defaultIntervalS
	}

	expected := 1.0
	if durationS > 0 {
		expected = math.Max(1, float64(durationS)/interval)
	}
	return math.Min(1.0, float64(count)/expected)
}

// plausibleSpeed проверяет среднюю скорость по прямой между первым и
// последним пингом против диапазона режима. Сегменты короче двух пингов
// или нулевой длительности не штрафуются.
func plausibleSpeed(segment []models.RawPing, primary models.Motion, durationS int64) bool {
	if len(segment) < 2 || durationS <= 0 {
		return true
	}

	bounds, ok := speedRangeKmh[primary]
	if !ok {
		return true
	}

	distanceM := segment[0].Position.DistanceTo(segment[len(segment)-1].Position)
	speedKmh := distanceM / float64(durationS) * 3.6
	return speedKmh >= bounds.min && speedKmh <= bounds.max
}
