// Package diary реализует движок восстановления дневника: кластеризацию
// пингов в визиты, многосигнальный скоринг уверенности, политику отбора,
// сегментацию поездок между якорными визитами и инъекцию синтетических
// записей. Весь конвейер — чистое преобразование запрос→ответ над
// данными одного дня устройства; случайность есть только в инъекторе.
package diary

import (
	"time"

	"github.com/geodiary/diary-backend/internal/models"
)

// clusterRadiusM максимальное расстояние от центроида, при котором
// пинг остается в текущем кластере
const clusterRadiusM = 75.0

// cluster бегущий кластер пингов с текущим центроидом
type cluster struct {
	pings    []models.RawPing
	centroid models.Position
}

// clusterPings выполняет жадную однопроходную кластеризацию
// хронологически упорядоченных пингов. Первый пинг всегда открывает
// кластер; каждый следующий либо присоединяется (и центроид
// пересчитывается), либо закрывает текущий кластер и открывает новый.
// Ранние члены не исключаются задним числом при смещении центроида.
func clusterPings(pings []models.RawPing) []cluster {
	if len(pings) == 0 {
		return nil
	}

	var clusters []cluster
	current := cluster{
		pings:    []models.RawPing{pings[0]},
		centroid: pings[0].Position,
	}

	for _, ping := range pings[1:] {
		if current.centroid.DistanceTo(ping.Position) <= clusterRadiusM {
			current.pings = append(current.pings, ping)
			current.centroid = centroidOf(current.pings)
		} else {
			clusters = append(clusters, current)
			current = cluster{
				pings:    []models.RawPing{ping},
				centroid: ping.Position,
			}
		}
	}

	return append(clusters, current)
}

// centroidOf вычисляет центроид позиций пингов кластера
func centroidOf(pings []models.RawPing) models.Position {
	positions := make([]models.Position, len(pings))
	for i, p := range pings {
		positions[i] = p.Position
	}
	return models.Centroid(positions)
}

// BuildVisits кластеризует сглаженную последовательность пингов и
// строит по одному кандидату-визиту на закрытый кластер. Уверенность
// и тип визита назначает скоринг; представительные поля — мода и
// объединение по членам кластера.
func BuildVisits(pings []models.RawPing) []models.Visit {
	clusters := clusterPings(pings)

	visits := make([]models.Visit, 0, len(clusters))
	for _, c := range clusters {
		first := c.pings[0]
		last := c.pings[len(c.pings)-1]

		confidence, visitType := scoreCluster(c.pings)

		memberIDs := make([]string, len(c.pings))
		primaryTypes := make([]string, len(c.pings))
		motions := make([]models.MotionSample, len(c.pings))
		for i, p := range c.pings {
			memberIDs[i] = p.ID
			primaryTypes[i] = p.PrimaryPlaceType
			motions[i] = p.Motion
		}

		visits = append(visits, models.Visit{
			ID:               first.ID,
			MemberPingIDs:    memberIDs,
			StartedAt:        first.Timestamp,
			EndedAt:          last.Timestamp,
			DurationS:        durationSeconds(first.Timestamp, last.Timestamp),
			PrimaryPlaceType: modeString(primaryTypes),
			OtherPlaceTypes:  unionOtherTypes(c.pings),
			DominantMotion:   modeMotion(motions),
			Confidence:       confidence,
			VisitType:        visitType,
			PingCount:        len(c.pings),
		})
	}

	return visits
}

// durationSeconds длительность между метками в целых секундах, не меньше нуля
func durationSeconds(start, end time.Time) int64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d.Round(time.Second) / time.Second)
}

// modeString возвращает самый частый элемент; при равенстве побеждает
// встретившийся раньше
func modeString(values []string) string {
	if len(values) == 0 {
		return ""
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := values[0]
	bestCount := counts[best]
	for _, v := range values {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// modeMotion возвращает самое частое показание движения
func modeMotion(samples []models.MotionSample) models.MotionSample {
	if len(samples) == 0 {
		return models.MotionSample{Motion: models.MotionUnknown, Confidence: models.MotionConfidenceUnknown}
	}

	counts := make(map[models.MotionSample]int, len(samples))
	for _, s := range samples {
		counts[s]++
	}

	best := samples[0]
	bestCount := counts[best]
	for _, s := range samples {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

// unionOtherTypes объединяет other_place_types членов кластера без
// дубликатов, сохраняя порядок первого появления
func unionOtherTypes(pings []models.RawPing) []string {
	seen := make(map[string]bool)
	union := make([]string, 0)
	for _, p := range pings {
		for _, placeType := range p.OtherPlaceTypes {
			if !seen[placeType] {
				seen[placeType] = true
				union = append(union, placeType)
			}
		}
	}
	return union
}
