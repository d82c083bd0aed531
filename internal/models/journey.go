package models

import "time"

// Journey сегмент передвижения между двумя якорными визитами,
// классифицированный по доминирующему транспортному режиму.
// from_visit_id/to_visit_id всегда ссылаются на визиты того же ответа.
type Journey struct {
	ID                   string             `json:"journey_id"`
	MemberPingIDs        []string           `json:"member_ping_ids"`
	FromVisitID          string             `json:"from_visit_id"`
	ToVisitID            string             `json:"to_visit_id"`
	PrimaryTransport     Motion             `json:"primary_transport"`
	TransportProportions map[Motion]float64 `json:"transport_proportions"`
	StartedAt            time.Time          `json:"started_at"`
	EndedAt              time.Time          `json:"ended_at"`
	DurationS            int64              `json:"duration_s"`
	PingCount            int                `json:"ping_count"`
	Confidence           Confidence         `json:"confidence"`
}

// DiaryResponse ответ на запрос дневника за один день устройства.
// Синтетические записи включены в общие списки; флаг is_synthetic
// хранится только в БД и никогда не сериализуется клиенту.
type DiaryResponse struct {
	AlreadySubmitted bool       `json:"already_submitted,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	Visits           []Visit    `json:"visits"`
	Journeys         []Journey  `json:"journeys"`
}
