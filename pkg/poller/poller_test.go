package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/domain"
)

type fakeRefresher struct {
	mu      sync.Mutex
	devices []adb.DeviceEntry
	err     error
	panicV  interface{}
	calls   int32
}

func (f *fakeRefresher) Refresh(context.Context) ([]adb.DeviceEntry, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicV != nil {
		panic(f.panicV)
	}
	return f.devices, f.err
}

func (f *fakeRefresher) set(devices []adb.DeviceEntry, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices, f.err = devices, err
}

func TestInitialStateIsOffline(t *testing.T) {
	p := New(&fakeRefresher{}, 0)
	s := p.State()
	assert.Equal(t, Offline, s.Connectivity)
	assert.False(t, s.Active)
	assert.Equal(t, DefaultInterval, p.Interval())
}

func TestTickTransitions(t *testing.T) {
	tests := []struct {
		name        string
		devices     []adb.DeviceEntry
		err         error
		want        Connectivity
		wantSummary string
		wantError   bool
	}{
		{
			name: "connected with model name",
			devices: []adb.DeviceEntry{
				{Address: "192.168.1.5:5555", DisplayName: "Pixel 7", Status: adb.StatusOnline},
				{Address: "emulator-5554", DisplayName: "emulator-5554", Status: adb.StatusOnline},
			},
			want:        Connected,
			wantSummary: "Pixel 7 (192.168.1.5:5555)",
		},
		{
			name:        "connected without model name",
			devices:     []adb.DeviceEntry{{Address: "192.168.1.5:5555", DisplayName: "192.168.1.5:5555"}},
			want:        Connected,
			wantSummary: "192.168.1.5:5555",
		},
		{
			name:        "no devices",
			devices:     []adb.DeviceEntry{},
			want:        Empty,
			wantSummary: SummaryNoDevice,
		},
		{
			name:        "tool missing",
			err:         domain.NewToolNotFound("resolve", "", nil),
			want:        Offline,
			wantSummary: SummaryOffline,
			wantError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeRefresher{devices: tt.devices, err: tt.err}, time.Hour)
			s := p.Tick(context.Background())

			assert.Equal(t, tt.want, s.Connectivity)
			assert.Equal(t, tt.wantSummary, s.Summary)
			assert.Equal(t, tt.wantError, s.LastError != "")
			assert.Equal(t, s, p.State())
		})
	}
}

func TestTickSurvivesRepeatedFailuresAndPanics(t *testing.T) {
	f := &fakeRefresher{err: errors.New("adb not found")}
	p := New(f, time.Hour)

	for i := 0; i < 5; i++ {
		s := p.Tick(context.Background())
		assert.Equal(t, Offline, s.Connectivity)
		assert.Equal(t, "adb not found", s.LastError)
	}

	f.mu.Lock()
	f.panicV = "boom"
	f.mu.Unlock()

	var s State
	require.NotPanics(t, func() { s = p.Tick(context.Background()) })
	assert.Equal(t, Offline, s.Connectivity)
	assert.Contains(t, s.LastError, "boom")
}

func TestSubscribe(t *testing.T) {
	f := &fakeRefresher{devices: []adb.DeviceEntry{{Address: "emulator-5554", DisplayName: "emulator-5554"}}}
	p := New(f, time.Hour)

	var got []State
	unsubscribe := p.Subscribe(func(s State) { got = append(got, s) })
	p.Subscribe(func(State) { panic("listener bug") })

	p.Tick(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, Connected, got[0].Connectivity)

	unsubscribe()
	p.Tick(context.Background())
	assert.Len(t, got, 1, "unsubscribed listener must not be called")
}

func TestStartStop(t *testing.T) {
	f := &fakeRefresher{devices: []adb.DeviceEntry{}}
	p := New(f, 10*time.Millisecond)

	updates := make(chan State, 100)
	p.Subscribe(func(s State) {
		select {
		case updates <- s:
		default:
		}
	})

	p.Start(context.Background())
	p.Start(context.Background()) // second start is a no-op

	select {
	case s := <-updates:
		assert.Equal(t, Empty, s.Connectivity)
		assert.True(t, s.Active)
	case <-time.After(time.Second):
		t.Fatal("no immediate tick after Start")
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&f.calls) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	p.Stop()
	assert.False(t, p.State().Active)

	calls := atomic.LoadInt32(&f.calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt32(&f.calls), "no ticks after Stop")

	p.Stop() // stopping twice is safe
}
