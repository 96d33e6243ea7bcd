package realtime

import (
	"sync"

	"github.com/samber/lo"
)

// Registry is the Presence Set: the users currently considered connected.
//
// Membership is keyed by user id, so several connections from one user
// collapse into one entry and the last register or deregister for that id
// wins. Every call publishes the full snapshot as a set-active-users event,
// even when membership did not change.
type Registry struct {
	mu       sync.Mutex
	members  map[string]struct{}
	order    []string
	out      Broadcaster
	observer Observer
}

// NewRegistry returns an empty registry publishing to out. A nil observer
// discards diagnostics.
func NewRegistry(out Broadcaster, observer Observer) *Registry {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Registry{
		members:  make(map[string]struct{}),
		out:      out,
		observer: observer,
	}
}

// Register adds userID and publishes the snapshot.
func (r *Registry) Register(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[userID]; !ok {
		r.members[userID] = struct{}{}
		r.order = append(r.order, userID)
	}
	r.publishLocked()
}

// Deregister removes userID if present and publishes the snapshot.
func (r *Registry) Deregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[userID]; ok {
		delete(r.members, userID)
		r.order = lo.Without(r.order, userID)
	}
	r.publishLocked()
}

// Snapshot returns the connected user ids in first-connect order.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

// Contains reports whether userID is present.
func (r *Registry) Contains(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.members[userID]
	return ok
}

func (r *Registry) snapshotLocked() []string {
	return append(make([]string, 0, len(r.order)), r.order...)
}

// publishLocked runs under r.mu so that snapshots reach the broadcaster in
// the same order the mutations happened.
func (r *Registry) publishLocked() {
	snapshot := r.snapshotLocked()
	r.observer.PresenceChanged(len(snapshot))
	r.out.Broadcast(EventSetActiveUsers, snapshot)
}
