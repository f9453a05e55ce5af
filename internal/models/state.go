package models

// FuelState is the fuelling severity of a structure.
type FuelState string

const (
	// StateDanger means fuel runs out within the danger threshold.
	StateDanger FuelState = "danger"
	// StateWarning means fuel runs out within the warning threshold.
	StateWarning FuelState = "warning"
	// StateGood means fuel lasts beyond the warning threshold.
	StateGood FuelState = "good"
	// StateUnknown marks a structure with no persisted history.
	StateUnknown FuelState = "unknown"
)

// String returns the string representation of the fuel state.
func (s FuelState) String() string {
	return string(s)
}

// IsNominal reports whether the state needs no attention.
func (s FuelState) IsNominal() bool {
	return s == StateGood
}

// ParseFuelState converts a persisted value back into a FuelState.
// Unrecognised values map to StateUnknown so they never compare equal to a real state.
func ParseFuelState(s string) FuelState {
	switch FuelState(s) {
	case StateDanger, StateWarning, StateGood:
		return FuelState(s)
	default:
		return StateUnknown
	}
}
