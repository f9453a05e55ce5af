package fuel

import "fuelbot/internal/models"

// DetectChanges annotates each structure with its persisted state and returns, in input order,
// the ones whose state differs. Structures with no history count as changed.
func DetectChanges(evaluated []models.Evaluated, prior map[int64]models.FuelState) []models.Evaluated {
	changed := make([]models.Evaluated, 0, len(evaluated))
	for _, e := range evaluated {
		prev, ok := prior[e.ID]
		if !ok {
			prev = models.StateUnknown
		}
		e.PreviousState = prev
		if e.Changed() {
			changed = append(changed, e)
		}
	}
	return changed
}

// MergeStates overlays the current states onto the prior snapshot. Entries for structures that
// were not evaluated this run are kept.
func MergeStates(prior map[int64]models.FuelState, evaluated []models.Evaluated) map[int64]models.FuelState {
	next := make(map[int64]models.FuelState, len(prior)+len(evaluated))
	for id, st := range prior {
		next[id] = st
	}
	for _, e := range evaluated {
		next[e.ID] = e.State
	}
	return next
}
