// Package fuel classifies structure fuel levels and turns state transitions into alerts.
package fuel

import (
	"time"

	"fuelbot/internal/models"
)

// Thresholds holds the day counts at or below which a structure is in danger or warning.
type Thresholds struct {
	DangerDays  float64
	WarningDays float64
}

// DefaultThresholds returns the stock danger/warning bands.
func DefaultThresholds() Thresholds {
	return Thresholds{DangerDays: 7, WarningDays: 14}
}

// Inverted reports whether the warning band is empty because danger exceeds warning.
func (t Thresholds) Inverted() bool {
	return t.DangerDays > t.WarningDays
}

// Classify maps the remaining fuel in days to a state. The most severe band is checked first,
// so inverted thresholds silently collapse the warning band.
func Classify(daysLeft float64, t Thresholds) models.FuelState {
	switch {
	case daysLeft <= t.DangerDays:
		return models.StateDanger
	case daysLeft <= t.WarningDays:
		return models.StateWarning
	default:
		return models.StateGood
	}
}

// Evaluate classifies every structure against the same instant.
// A structure without a fuel expiry is treated as already out of fuel.
func Evaluate(structures []models.Structure, now time.Time, t Thresholds) []models.Evaluated {
	out := make([]models.Evaluated, 0, len(structures))
	for _, s := range structures {
		if s.FuelExpires.IsZero() {
			s.FuelExpires = now
		}
		e := models.Evaluated{Structure: s, Remaining: s.FuelExpires.Sub(now)}
		e.State = Classify(e.DaysLeft(), t)
		out = append(out, e)
	}
	return out
}
