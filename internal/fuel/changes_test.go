package fuel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelbot/internal/models"
)

func evaluated(id int64, st models.FuelState) models.Evaluated {
	return models.Evaluated{Structure: models.Structure{ID: id}, State: st}
}

func TestDetectChanges(t *testing.T) {
	in := []models.Evaluated{
		evaluated(1, models.StateDanger),
		evaluated(2, models.StateGood),
		evaluated(3, models.StateWarning),
		evaluated(4, models.StateGood),
	}
	prior := map[int64]models.FuelState{
		1: models.StateGood,
		2: models.StateGood,
		3: models.StateDanger,
	}

	got := DetectChanges(in, prior)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, models.StateGood, got[0].PreviousState)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Equal(t, models.StateDanger, got[1].PreviousState)
	assert.Equal(t, int64(4), got[2].ID)
	assert.Equal(t, models.StateUnknown, got[2].PreviousState)

	assert.Empty(t, in[0].PreviousState, "input must not be annotated in place")
}

func TestDetectChanges_Deterministic(t *testing.T) {
	in := []models.Evaluated{evaluated(7, models.StateWarning), evaluated(8, models.StateGood)}
	prior := map[int64]models.FuelState{8: models.StateWarning}
	assert.Equal(t, DetectChanges(in, prior), DetectChanges(in, prior))
}

func TestDetectChanges_FirstSeenAlwaysChanged(t *testing.T) {
	for _, st := range []models.FuelState{models.StateDanger, models.StateWarning, models.StateGood} {
		got := DetectChanges([]models.Evaluated{evaluated(9, st)}, nil)
		require.Len(t, got, 1)
		assert.Equal(t, models.StateUnknown, got[0].PreviousState)
	}
}

func TestDetectChanges_NoChange(t *testing.T) {
	in := []models.Evaluated{evaluated(1, models.StateDanger)}
	assert.Empty(t, DetectChanges(in, map[int64]models.FuelState{1: models.StateDanger}))
}

func TestMergeStates(t *testing.T) {
	prior := map[int64]models.FuelState{1: models.StateGood, 5: models.StateWarning}
	next := MergeStates(prior, []models.Evaluated{
		evaluated(1, models.StateDanger),
		evaluated(2, models.StateGood),
	})

	assert.Equal(t, map[int64]models.FuelState{
		1: models.StateDanger,
		2: models.StateGood,
		5: models.StateWarning,
	}, next)
	assert.Equal(t, models.StateGood, prior[1])
}
