package diary

import (
	"sort"

	"github.com/geodiary/diary-backend/internal/models"
)

const (
	// Минимальное пребывание в секундах; короче — визит понижается до brief_stop
	minDwellS = 300

	// Потолок числа не-high визитов в ответе
	maxNonHighVisits = 10
)

// SelectVisits применяет правило минимального пребывания и квоту отбора.
// Все high-визиты проходят безусловно; medium и low делят не более
// maxNonHighVisits мест, причем каждый непустой уровень гарантированно
// представлен хотя бы одним визитом. При переполнении первыми
// вылетают low. Итог отсортирован по времени начала.
func SelectVisits(visits []models.Visit) []models.Visit {
	var high, medium, low []models.Visit
	for _, v := range visits {
		// Правило минимального пребывания применяется до разбора по уровням
		if v.DurationS < minDwellS {
			v.Confidence = models.ConfidenceLow
			v.VisitType = models.VisitTypeBriefStop
		}

		switch v.Confidence {
		case models.ConfidenceHigh:
			high = append(high, v)
		case models.ConfidenceMedium:
			medium = append(medium, v)
		default:
			low = append(low, v)
		}
	}

	reservedLow := 0
	if len(low) > 0 {
		reservedLow = 1
	}
	reservedMedium := 0
	if len(medium) > 0 {
		reservedMedium = 1
	}

	mediumSlots := maxNonHighVisits - reservedLow
	if mediumSlots > len(medium) {
		mediumSlots = len(medium)
	}
	lowSlots := maxNonHighVisits - mediumSlots

	pickedMedium := medium[:maxInt(mediumSlots, reservedMedium)]
	pickedLow := low[:minInt(len(low), maxInt(lowSlots, reservedLow))]

	// Резервирование могло переполнить квоту на единицу
	for len(pickedMedium)+len(pickedLow) > maxNonHighVisits && len(pickedLow) > reservedLow {
		pickedLow = pickedLow[:len(pickedLow)-1]
	}

	selected := make([]models.Visit, 0, len(high)+len(pickedMedium)+len(pickedLow))
	selected = append(selected, high...)
	selected = append(selected, pickedMedium...)
	selected = append(selected, pickedLow...)

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].StartedAt.Before(selected[j].StartedAt)
	})

	return selected
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
