package models

import (
	"strings"
	"time"
)

// Motion классификация движения из датчиков устройства
type Motion string

const (
	MotionStill      Motion = "still"
	MotionWalking    Motion = "walking"
	MotionRunning    Motion = "running"
	MotionCycling    Motion = "cycling"
	MotionAutomotive Motion = "automotive"
	MotionUnknown    Motion = "unknown"
)

// ParseMotion нормализует строку движения; неизвестные значения дают MotionUnknown
func ParseMotion(s string) Motion {
	switch Motion(strings.ToLower(s)) {
	case MotionStill, MotionWalking, MotionRunning, MotionCycling, MotionAutomotive:
		return Motion(strings.ToLower(s))
	default:
		return MotionUnknown
	}
}

// Active сообщает, является ли движение активным транспортным режимом.
// Пинги still/unknown поглощаются открытым сегментом поездки.
func (m Motion) Active() bool {
	switch m {
	case MotionWalking, MotionRunning, MotionCycling, MotionAutomotive:
		return true
	default:
		return false
	}
}

// MotionConfidence уверенность классификатора движения
type MotionConfidence string

const (
	MotionConfidenceLow     MotionConfidence = "low"
	MotionConfidenceMedium  MotionConfidence = "medium"
	MotionConfidenceHigh    MotionConfidence = "high"
	MotionConfidenceUnknown MotionConfidence = "unknown"
)

// AtLeastMedium сообщает, не ниже ли уверенность значения medium
func (c MotionConfidence) AtLeastMedium() bool {
	return c == MotionConfidenceMedium || c == MotionConfidenceHigh
}

// MotionSample одно показание классификатора движения
type MotionSample struct {
	Motion     Motion           `json:"motion"`
	Confidence MotionConfidence `json:"confidence"`
}

// RawPing одно событие фиксации местоположения. Производится внешним
// шагом ингестии (обратное геокодирование уже выполнено); неизменяем,
// потребляется строго в порядке неубывающих временных меток.
type RawPing struct {
	ID                  string       `json:"id"`
	Timestamp           time.Time    `json:"timestamp"`
	PrimaryPlaceType    string       `json:"primary_place_type"`
	OtherPlaceTypes     []string     `json:"other_place_types,omitempty"`
	Motion              MotionSample `json:"motion"`
	Position            Position     `json:"position"`
	HorizontalAccuracyM *float64     `json:"horizontal_accuracy_m,omitempty"`
}
