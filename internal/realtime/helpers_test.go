package realtime_test

import (
	"sync"

	"github.com/Tyrowin/guildchat/internal/realtime"
)

// broadcast is one recorded Broadcast call.
type broadcast struct {
	Event   string
	Payload any
}

// recordingBroadcaster records every broadcast in call order.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcast
}

func (b *recordingBroadcaster) Broadcast(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcast{Event: event, Payload: payload})
}

func (b *recordingBroadcaster) Calls() []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast(nil), b.calls...)
}

// countingObserver tallies diagnostics by name.
type countingObserver struct {
	mu       sync.Mutex
	routed   map[string]int
	dropped  map[string]int
	failed   map[string]int
	presence []int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		routed:  map[string]int{},
		dropped: map[string]int{},
		failed:  map[string]int{},
	}
}

func (o *countingObserver) EnvelopeRouted(route string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routed[route]++
}

func (o *countingObserver) EnvelopeDropped(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped[reason]++
}

func (o *countingObserver) GatewayFailed(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[op]++
}

func (o *countingObserver) PresenceChanged(active int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.presence = append(o.presence, active)
}

var (
	_ realtime.Broadcaster = (*recordingBroadcaster)(nil)
	_ realtime.Observer    = (*countingObserver)(nil)
)
