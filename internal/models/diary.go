package models

import "time"

// Diary строка дневника: один день одного устройства. После отправки
// ответов пользователем дневник заморожен и пересборке не подлежит.
type Diary struct {
	ID          int64      `json:"id"`
	DeviceID    string     `json:"device_id"`
	Date        time.Time  `json:"date"`
	Submitted   bool       `json:"submitted"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// StoredVisit сохраненный визит дневника вместе с пометкой синтетики
// и ответами пользователя. Ответы заполняются отдельным потоком
// отправки и для свежесобранного дневника всегда пусты.
type StoredVisit struct {
	Visit

	IsSynthetic       bool    `json:"-"`
	ActivityLabel     *string `json:"activity_label,omitempty"`
	ConfirmedPlace    *string `json:"confirmed_place,omitempty"`
	ConfirmedActivity *string `json:"confirmed_activity,omitempty"`
	UserContext       *string `json:"user_context,omitempty"`
}

// StoredJourney сохраненная поездка дневника
type StoredJourney struct {
	Journey

	IsSynthetic        bool    `json:"-"`
	ConfirmedTransport *string `json:"confirmed_transport,omitempty"`
	TravelReason       *string `json:"travel_reason,omitempty"`
}
