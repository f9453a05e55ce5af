package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelbot/internal/config"
	"fuelbot/internal/logging"
	"fuelbot/internal/models"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func days(n float64) time.Time {
	return now.Add(time.Duration(n * 24 * float64(time.Hour)))
}

type fakeSource struct {
	structures []models.Structure
	names      map[int64]string
	err        error
	entered    chan struct{}
	block      chan struct{}
}

func (f *fakeSource) ListStructures(context.Context) ([]models.Structure, error) {
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	out := make([]models.Structure, len(f.structures))
	copy(out, f.structures)
	return out, f.err
}

func (f *fakeSource) StructureName(_ context.Context, id int64) (string, error) {
	return f.names[id], nil
}

type fakeResolver struct {
	ids   map[string]int64
	calls int
}

func (f *fakeResolver) ResolveSystemIDs(_ context.Context, names []string) ([]int64, error) {
	f.calls++
	var ids []int64
	for _, n := range names {
		if id, ok := f.ids[n]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type memStore struct {
	states   map[int64]models.FuelState
	writeErr error
	writes   int
}

func (m *memStore) Read(context.Context) (map[int64]models.FuelState, error) {
	out := make(map[int64]models.FuelState, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Write(_ context.Context, states map[int64]models.FuelState) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.states = states
	return nil
}

func (m *memStore) Close() error { return nil }

type fakeNotifier struct {
	sent []models.Notification
	err  error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(_ context.Context, n models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func newService(src *fakeSource, res *fakeResolver, st *memStore, n *fakeNotifier, cfg config.Config) *Service {
	svc := New(src, res, st, []Notifier{n}, logging.NewNop(), cfg)
	svc.now = func() time.Time { return now }
	return svc
}

func fleet() *fakeSource {
	return &fakeSource{
		structures: []models.Structure{
			{ID: 1, SystemID: 100, TypeID: 35832, FuelExpires: days(5)},
			{ID: 2, SystemID: 200, TypeID: 35833, FuelExpires: days(20)},
			{ID: 3, SystemID: 100, TypeID: 35834, FuelExpires: days(3)},
		},
		names: map[int64]string{1: "Jita - A", 2: "Amarr - B", 3: "Jita - C"},
	}
}

func TestRun_Scenarios(t *testing.T) {
	st := &memStore{states: map[int64]models.FuelState{
		1: models.StateGood,
		2: models.StateWarning,
		3: models.StateDanger,
	}}
	n := &fakeNotifier{}
	svc := newService(fleet(), &fakeResolver{}, st, n, config.Config{})

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Evaluated)
	assert.Equal(t, 2, res.Changed)
	assert.True(t, res.Panic)
	require.Len(t, n.sent, 1)

	sent := n.sent[0]
	assert.True(t, sent.Panic)
	assert.Equal(t, res.RunID, sent.RunID)
	assert.Equal(t, "Structure fuel state changes:", sent.Summary)
	require.Len(t, sent.Alerts, 2)

	// sorted by fuel expiry: A (5 days) before B (20 days); C is unchanged
	assert.Equal(t, "A in Jita", sent.Alerts[0].Title)
	assert.Equal(t, models.StateGood, sent.Alerts[0].PreviousState)
	assert.Equal(t, models.StateDanger, sent.Alerts[0].State)
	assert.Equal(t, "B in Amarr", sent.Alerts[1].Title)
	assert.Equal(t, models.StateWarning, sent.Alerts[1].PreviousState)
	assert.Equal(t, models.StateGood, sent.Alerts[1].State)

	assert.Equal(t, map[int64]models.FuelState{
		1: models.StateDanger,
		2: models.StateGood,
		3: models.StateDanger,
	}, st.states)

	last, ok := svc.LastRun()
	require.True(t, ok)
	assert.Equal(t, res.RunID, last.RunID)
}

func TestRun_RecoveryOnlyDoesNotPanic(t *testing.T) {
	src := &fakeSource{
		structures: []models.Structure{{ID: 2, FuelExpires: days(20)}},
		names:      map[int64]string{2: "Amarr - B"},
	}
	st := &memStore{states: map[int64]models.FuelState{2: models.StateWarning}}
	n := &fakeNotifier{}

	res, err := newService(src, &fakeResolver{}, st, n, config.Config{}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, n.sent, 1)
	assert.False(t, res.Panic)
	assert.False(t, n.sent[0].Panic)
	assert.Equal(t, models.StateGood, st.states[2])
}

func TestRun_NoChangeSkipsNotification(t *testing.T) {
	src := &fakeSource{
		structures: []models.Structure{{ID: 3, FuelExpires: days(3)}},
		names:      map[int64]string{3: "Jita - C"},
	}
	st := &memStore{states: map[int64]models.FuelState{3: models.StateDanger}}
	n := &fakeNotifier{}

	res, err := newService(src, &fakeResolver{}, st, n, config.Config{}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, n.sent)
	assert.False(t, res.Notified)
	assert.Equal(t, 0, res.Changed)
	assert.Equal(t, 1, st.writes)
	assert.Equal(t, models.StateDanger, st.states[3])
}

func TestRun_FirstRunReportsEverything(t *testing.T) {
	st := &memStore{}
	n := &fakeNotifier{}

	res, err := newService(fleet(), &fakeResolver{}, st, n, config.Config{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Changed)
	for _, a := range n.sent[0].Alerts {
		assert.Equal(t, models.StateUnknown, a.PreviousState)
	}

	// second run with nothing moved stays silent
	_, err = newService(fleet(), &fakeResolver{}, st, n, config.Config{}).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, n.sent, 1)
}

func TestRun_FiltersBySystemAndKeepsStaleHistory(t *testing.T) {
	st := &memStore{states: map[int64]models.FuelState{2: models.StateWarning}}
	n := &fakeNotifier{}
	resolver := &fakeResolver{ids: map[string]int64{"Jita": 100}}
	cfg := config.Config{Systems: []string{"Jita", "Nowhere"}}

	res, err := newService(fleet(), resolver, st, n, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 3, res.Listed)
	assert.Equal(t, 2, res.Evaluated)
	for _, a := range n.sent[0].Alerts {
		assert.NotEqual(t, int64(2), a.StructureID)
	}
	assert.Equal(t, models.StateWarning, st.states[2], "filtered structure keeps its history")
	assert.Equal(t, models.StateDanger, st.states[1])
}

func TestRun_CustomThresholds(t *testing.T) {
	danger, warning := 2, 4
	src := &fakeSource{
		structures: []models.Structure{{ID: 1, FuelExpires: days(3)}},
		names:      map[int64]string{1: "Jita - A"},
	}
	st := &memStore{}
	n := &fakeNotifier{}
	cfg := config.Config{DangerDays: &danger, WarningDays: &warning}

	_, err := newService(src, &fakeResolver{}, st, n, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateWarning, st.states[1])
}

func TestRun_SourceFailureAborts(t *testing.T) {
	src := &fakeSource{err: errors.New("esi down")}
	st := &memStore{states: map[int64]models.FuelState{1: models.StateGood}}
	n := &fakeNotifier{}

	_, err := newService(src, &fakeResolver{}, st, n, config.Config{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "esi down")
	assert.Empty(t, n.sent)
	assert.Equal(t, 0, st.writes)
}

func TestRun_NotifyFailureLeavesStoreUntouched(t *testing.T) {
	st := &memStore{states: map[int64]models.FuelState{1: models.StateGood}}
	n := &fakeNotifier{err: errors.New("webhook 500")}

	_, err := newService(fleet(), &fakeResolver{}, st, n, config.Config{}).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, st.writes)
	assert.Equal(t, models.StateGood, st.states[1])
}

func TestRun_StoreWriteFailureAfterNotify(t *testing.T) {
	st := &memStore{writeErr: errors.New("disk full")}
	n := &fakeNotifier{}

	_, err := newService(fleet(), &fakeResolver{}, st, n, config.Config{}).Run(context.Background())
	require.Error(t, err)
	assert.Len(t, n.sent, 1, "notification goes out before the state is persisted")
}

func TestRun_RejectsOverlap(t *testing.T) {
	src := fleet()
	src.entered = make(chan struct{}, 1)
	src.block = make(chan struct{})
	svc := newService(src, &fakeResolver{}, &memStore{}, &fakeNotifier{}, config.Config{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Run(context.Background())
		assert.NoError(t, err)
	}()

	<-src.entered
	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)

	close(src.block)
	wg.Wait()
}

func TestOnRun(t *testing.T) {
	svc := newService(fleet(), &fakeResolver{}, &memStore{}, &fakeNotifier{}, config.Config{})
	var got []RunResult
	svc.OnRun(func(r RunResult) { got = append(got, r) })

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, res.RunID, got[0].RunID)
}

func TestOnRun_SlowListenerDoesNotBlockNextRun(t *testing.T) {
	svc := newService(fleet(), &fakeResolver{}, &memStore{}, &fakeNotifier{}, config.Config{})

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	svc.OnRun(func(RunResult) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
			<-release
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Run(context.Background())
		assert.NoError(t, err)
	}()

	<-entered
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
