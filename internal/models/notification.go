package models

import (
	"time"
)

// Alert is a display-ready record for one structure whose fuel state changed.
type Alert struct {
	Title    string    `json:"title"`
	Color    FuelState `json:"color"`
	Text     string    `json:"text"`
	Fallback string    `json:"fallback"`
	ThumbURL string    `json:"thumb_url"`

	StructureID   int64     `json:"structure_id"`
	SystemName    string    `json:"system_name"`
	FacilityName  string    `json:"facility_name"`
	PreviousState FuelState `json:"previous_state"`
	State         FuelState `json:"state"`
	DaysLeft      float64   `json:"days_left"`
	OfflineAt     time.Time `json:"offline_at"`
}

// Notification groups the alerts of one run for delivery to a channel.
type Notification struct {
	RunID   string    `json:"run_id"`
	Summary string    `json:"summary"`
	Alerts  []Alert   `json:"alerts"`
	Panic   bool      `json:"panic"`
	SentAt  time.Time `json:"sent_at"`
}
