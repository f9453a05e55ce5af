package fuel

import (
	"fmt"

	"fuelbot/internal/models"
)

const (
	// SummaryText heads every change notification.
	SummaryText = "Structure fuel state changes:"

	offlineLayout = "Monday, 2006-01-02 15:04:05 EVE time"
	thumbURLFmt   = "https://imageserver.eveonline.com/Render/%d_128.png"
)

// ThumbURL returns the render image for a structure type.
func ThumbURL(typeID int64) string {
	return fmt.Sprintf(thumbURLFmt, typeID)
}

// BuildAlerts converts changed structures into alerts. panicFlag is set when any of them
// landed in a state other than good.
func BuildAlerts(changed []models.Evaluated) (alerts []models.Alert, panicFlag bool) {
	alerts = make([]models.Alert, 0, len(changed))
	for _, e := range changed {
		alerts = append(alerts, buildAlert(e))
		if !e.State.IsNominal() {
			panicFlag = true
		}
	}
	return alerts, panicFlag
}

func buildAlert(e models.Evaluated) models.Alert {
	system := e.SystemLabel()
	facility := e.FacilityLabel()
	offline := e.FuelExpires.UTC()
	days := e.DaysLeft()

	return models.Alert{
		Title: facility + " in " + system,
		Color: e.State,
		Text: fmt.Sprintf("Fuel expires in %.1f days.\nServices will go offline at %s.\nOld state: %s, new state: %s",
			days, offline.Format(offlineLayout), e.PreviousState, e.State),
		Fallback:      fmt.Sprintf("%s in %s fuel state is %s.", facility, system, e.State),
		ThumbURL:      ThumbURL(e.TypeID),
		StructureID:   e.ID,
		SystemName:    system,
		FacilityName:  facility,
		PreviousState: e.PreviousState,
		State:         e.State,
		DaysLeft:      days,
		OfflineAt:     offline,
	}
}
