package models

import (
	"strings"
	"time"
)

const nameSeparator = " - "

// Structure is a corporation-owned facility that burns fuel.
type Structure struct {
	ID          int64     `json:"structure_id"`
	SystemID    int64     `json:"system_id"`
	Name        string    `json:"name"`
	FuelExpires time.Time `json:"fuel_expires"`
	TypeID      int64     `json:"type_id"`
}

// SystemLabel returns the part of the display name before the first separator.
func (s Structure) SystemLabel() string {
	if i := strings.Index(s.Name, nameSeparator); i >= 0 {
		return s.Name[:i]
	}
	return s.Name
}

// FacilityLabel returns the part of the display name after the last separator.
func (s Structure) FacilityLabel() string {
	if i := strings.LastIndex(s.Name, nameSeparator); i >= 0 {
		return s.Name[i+len(nameSeparator):]
	}
	return s.Name
}

// Evaluated is a Structure classified at a single instant.
type Evaluated struct {
	Structure
	Remaining     time.Duration `json:"remaining"`
	State         FuelState     `json:"state"`
	PreviousState FuelState     `json:"previous_state"`
}

// DaysLeft returns the remaining fuel time in fractional days.
func (e Evaluated) DaysLeft() float64 {
	return e.Remaining.Hours() / 24
}

// Changed reports whether the state differs from the persisted one.
func (e Evaluated) Changed() bool {
	return e.State != e.PreviousState
}
