package models

import (
	"strings"
	"time"
)

// Confidence калиброванный уровень уверенности визита или поездки
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Score отображает уровень уверенности в числовую оценку для
// расчета качества якорных визитов
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceMedium:
		return 0.66
	default:
		return 0.33
	}
}

// VisitType классификация визита по распределению движения и длительности
type VisitType string

const (
	VisitTypeConfirmed   VisitType = "confirmed_visit"
	VisitTypeVisit       VisitType = "visit"
	VisitTypeBriefStop   VisitType = "brief_stop"
	VisitTypeTrafficStop VisitType = "traffic_stop"
)

// SyntheticIDPrefix зарезервированное пространство идентификаторов
// для синтетических (red herring) записей
const SyntheticIDPrefix = "syn_"

// IsSyntheticID сообщает, принадлежит ли идентификатор синтетической записи
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

// Visit кластер пингов, представляющий пребывание в одном месте.
// Создается кластерным движком; уверенность и тип назначает скоринг;
// политика отбора может понизить уверенность по правилу минимального
// пребывания. После отбора не изменяется.
type Visit struct {
	ID               string       `json:"visit_id"`
	MemberPingIDs    []string     `json:"member_ping_ids"`
	StartedAt        time.Time    `json:"started_at"`
	EndedAt          time.Time    `json:"ended_at"`
	DurationS        int64        `json:"duration_s"`
	PrimaryPlaceType string       `json:"primary_place_type"`
	OtherPlaceTypes  []string     `json:"other_place_types"`
	DominantMotion   MotionSample `json:"dominant_motion"`
	Confidence       Confidence   `json:"confidence"`
	VisitType        VisitType    `json:"visit_type"`
	PingCount        int          `json:"ping_count"`
}

// Anchor сообщает, может ли визит ограничивать поездку (уверенность ≥ medium)
func (v *Visit) Anchor() bool {
	return v.Confidence == ConfidenceHigh || v.Confidence == ConfidenceMedium
}
