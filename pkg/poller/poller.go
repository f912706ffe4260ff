package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/util"
)

// DefaultInterval is the refresh period used when none is configured
const DefaultInterval = 30 * time.Second

// Connectivity is the condensed device state shown in status lines
type Connectivity string

const (
	Connected Connectivity = "connected"
	Empty     Connectivity = "empty"
	Offline   Connectivity = "offline"
)

// Summaries rendered for the non-connected states
const (
	SummaryNoDevice = "no device"
	SummaryOffline  = "offline"
)

// State is the last known poll result
type State struct {
	Connectivity Connectivity `json:"connectivity" yaml:"connectivity"`
	Summary      string       `json:"summary" yaml:"summary"`
	LastError    string       `json:"lastError,omitempty" yaml:"lastError,omitempty"`
	Active       bool         `json:"active" yaml:"active"`
	DeviceCount  int          `json:"deviceCount" yaml:"deviceCount"`
	UpdatedAt    time.Time    `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Refresher lists devices; *adb.Registry implements it
type Refresher interface {
	Refresh(ctx context.Context) ([]adb.DeviceEntry, error)
}

// Listener is notified with the new state after every tick
type Listener func(State)

// Poller periodically refreshes the device registry and keeps a renderable
// State. Refresh failures only degrade the state to offline.
type Poller struct {
	refresher Refresher
	interval  time.Duration

	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped poller in the offline state
func New(refresher Refresher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		refresher: refresher,
		interval:  interval,
		state:     State{Connectivity: Offline, Summary: SummaryOffline},
		listeners: make(map[int]Listener),
	}
}

// Interval returns the refresh period
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// State returns the current poll state
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Subscribe registers fn for state updates and returns a function that removes it
func (p *Poller) Subscribe(fn Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Tick refreshes once and returns the resulting state. It never fails: errors
// and panics from the refresh become an offline state.
func (p *Poller) Tick(ctx context.Context) State {
	devices, err := p.safeRefresh(ctx)

	next := State{UpdatedAt: time.Now()}
	switch {
	case err != nil:
		next.Connectivity = Offline
		next.Summary = SummaryOffline
		next.LastError = err.Error()
		util.GetLogger().V(1).Info("Device poll failed", "error", err.Error())
	case len(devices) == 0:
		next.Connectivity = Empty
		next.Summary = SummaryNoDevice
	default:
		next.Connectivity = Connected
		next.Summary = summarize(devices[0])
		next.DeviceCount = len(devices)
	}

	p.mu.Lock()
	next.Active = p.state.Active
	p.state = next
	listeners := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		notify(l, next)
	}
	return next
}

// Start runs an immediate tick and then ticks every interval until Stop is
// called or ctx is cancelled. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.setActive(true)

	go p.loop(runCtx, p.done)
}

// Stop halts periodic polling and waits for the loop to exit
func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.setActive(false)
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.Tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

func (p *Poller) setActive(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Active = active
}

// safeRefresh converts a panic in the refresher into an error
func (p *Poller) safeRefresh(ctx context.Context) (devices []adb.DeviceEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh panicked: %v", r)
		}
	}()
	return p.refresher.Refresh(ctx)
}

func notify(l Listener, s State) {
	defer func() {
		if r := recover(); r != nil {
			util.GetLogger().Info("Poll listener panicked", "panic", fmt.Sprint(r))
		}
	}()
	l(s)
}

func summarize(d adb.DeviceEntry) string {
	if d.DisplayName == "" || d.DisplayName == d.Address {
		return d.Address
	}
	return fmt.Sprintf("%s (%s)", d.DisplayName, d.Address)
}
