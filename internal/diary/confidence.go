package diary

import (
	"math"

	"github.com/geodiary/diary-backend/internal/models"
)

// Веса сигналов и пороги итогового балла кластера
const (
	pairWeight     = 0.55
	accuracyWeight = 0.25
	countWeight    = 0.20

	highThreshold   = 0.80
	mediumThreshold = 0.55
)

// Доли показаний движения, переключающие множитель и тип визита
const (
	stationaryShare = 0.70
	automotiveShare = 0.50
)

// scoreCluster вычисляет уверенность и тип визита для кластера.
// Балл складывается из трех взвешенных сигналов (попарная согласованность,
// точность фиксаций, размер кластера) и умножается на множитель профиля
// движения; профиль же определяет тип визита.
func scoreCluster(pings []models.RawPing) (models.Confidence, models.VisitType) {
	pair := pairScore(pings)
	accuracy := accuracyScore(pings)
	count := countScore(len(pings))

	multiplier, visitType := motionProfile(pings)

	score := (pair*pairWeight + accuracy*accuracyWeight + count*countWeight) * multiplier
	score = math.Min(1.0, score)

	switch {
	case score >= highThreshold:
		return models.ConfidenceHigh, visitType
	case score >= mediumThreshold:
		return models.ConfidenceMedium, visitType
	default:
		return models.ConfidenceLow, visitType
	}
}

// pairScore средний балл попарной согласованности соседних пингов.
// Уровни пары стоят ровно трети: high 1, medium 2/3, low 1/3. Кластер
// из одного пинга согласованность не демонстрирует и получает низший балл.
func pairScore(pings []models.RawPing) float64 {
	if len(pings) < 2 {
		return pairValue(models.ConfidenceLow)
	}

	sum := 0.0
	for i := 1; i < len(pings); i++ {
		prev := pings[i-1]
		curr := pings[i]
		distance := prev.Position.DistanceTo(curr.Position)
		sum += pairValue(pairConfidence(distance, prev.Motion, curr.Motion))
	}
	return sum / float64(len(pings)-1)
}

// pairValue числовое значение уверенности пары в точных третях
func pairValue(c models.Confidence) float64 {
	switch c {
	case models.ConfidenceHigh:
		return 1.0
	case models.ConfidenceMedium:
		return 2.0 / 3.0
	default:
		return 1.0 / 3.0
	}
}

// pairConfidence уверенность одной пары соседних пингов. Контекст
// благоприятен, когда режимы совпадают либо текущий пинг показывает
// still/walking с уверенностью не ниже medium: прибытие на место после
// езды не штрафуется. Благоприятный контекст разрешает high на малых
// расстояниях; неблагоприятный ограничивает пару потолком medium.
func pairConfidence(distanceM float64, prev, curr models.MotionSample) models.Confidence {
	favorable := prev.Motion == curr.Motion ||
		(isStationaryish(curr.Motion) && curr.Confidence.AtLeastMedium())

	if favorable {
		switch {
		case distanceM <= 25:
			return models.ConfidenceHigh
		case distanceM <= 50:
			return models.ConfidenceMedium
		default:
			return models.ConfidenceLow
		}
	}

	if distanceM <= 50 {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}

// isStationaryish движение, совместимое с пребыванием на месте
func isStationaryish(m models.Motion) bool {
	return m == models.MotionStill || m == models.MotionWalking
}

// accuracyScore балл средней горизонтальной точности кластера.
// Пинги без данных о точности не участвуют в среднем; кластер вовсе без
// данных получает нейтральные 0.7.
func accuracyScore(pings []models.RawPing) float64 {
	sum := 0.0
	n := 0
	for _, p := range pings {
		if p.HorizontalAccuracyM != nil {
			sum += *p.HorizontalAccuracyM
			n++
		}
	}
	if n == 0 {
		return 0.7
	}

	mean := sum / float64(n)
	switch {
	case mean <= 10:
		return 1.0
	case mean <= 30:
		return 0.9
	case mean <= 65:
		return 0.75
	default:
		return 0.5
	}
}

// countScore балл размера кластера
func countScore(count int) float64 {
	switch {
	case count <= 1:
		return 0.3
	case count <= 3:
		return 0.65
	case count <= 6:
		return 0.85
	default:
		return 1.0
	}
}

// motionProfile множитель балла и тип визита по профилю движения кластера.
// Преобладание still/walking подтверждает пребывание, преобладание
// automotive превращает кластер в остановку в трафике.
func motionProfile(pings []models.RawPing) (float64, models.VisitType) {
	if len(pings) == 0 {
		return 1.0, models.VisitTypeVisit
	}

	stationary := 0
	automotive := 0
	for _, p := range pings {
		switch p.Motion.Motion {
		case models.MotionStill, models.MotionWalking:
			stationary++
		case models.MotionAutomotive:
			automotive++
		}
	}

	total := float64(len(pings))
	if float64(stationary)/total >= stationaryShare {
		return 1.15, models.VisitTypeConfirmed
	}
	if float64(automotive)/total >= automotiveShare {
		return 0.6, models.VisitTypeTrafficStop
	}
	return 1.0, models.VisitTypeVisit
}
