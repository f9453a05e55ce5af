package fuel

import (
	"sort"

	"fuelbot/internal/models"
)

// SystemSet is an allow-list of solar system IDs. A nil set allows everything.
type SystemSet map[int64]struct{}

// NewSystemSet deduplicates resolved system IDs into a set.
func NewSystemSet(ids []int64) SystemSet {
	set := make(SystemSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is allowed.
func (s SystemSet) Contains(id int64) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// FilterBySystem keeps the structures located in an allowed system.
func FilterBySystem(structures []models.Structure, allowed SystemSet) []models.Structure {
	if allowed == nil {
		return structures
	}
	out := make([]models.Structure, 0, len(structures))
	for _, s := range structures {
		if allowed.Contains(s.SystemID) {
			out = append(out, s)
		}
	}
	return out
}

// SortByFuelExpiry orders structures so the ones running dry first come first.
func SortByFuelExpiry(structures []models.Structure) {
	sort.SliceStable(structures, func(i, j int) bool {
		return structures[i].FuelExpires.Before(structures[j].FuelExpires)
	})
}
