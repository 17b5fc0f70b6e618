package presence

import (
	"Workpulse/internal/event"
	"Workpulse/internal/model"
	"sync"
)

// Connection is one live socket owned by a user.
type Connection struct {
	ID     string
	Name   string
	Status string
	Caps   model.Capabilities
}

type entry struct {
	userID string
	conns  []*Connection
}

// Registry maps user ids to their live connections. A user is present iff it
// owns at least one connection. Snapshot order is entry insertion order, then
// connection insertion order inside an entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// AddConnection appends a connection with all flags off and status Active.
// Calls are not deduplicated: one call per physical connect.
func (r *Registry) AddConnection(userID, connectionID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		e = &entry{userID: userID}
		r.entries[userID] = e
		r.order = append(r.order, userID)
	}

	e.conns = append(e.conns, &Connection{
		ID:     connectionID,
		Name:   displayName,
		Status: event.ConnectionStatusActive,
	})
}

// RemoveConnection drops every connection with the given id and deletes any
// entry left empty. It returns the users that owned a matching connection.
func (r *Registry) RemoveConnection(connectionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var owners []string
	var emptied map[string]bool

	for _, userID := range r.order {
		e := r.entries[userID]
		kept := e.conns[:0]
		removed := false
		for _, c := range e.conns {
			if c.ID == connectionID {
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		if !removed {
			continue
		}

		owners = append(owners, userID)
		// clear the tail so dropped pointers can be collected
		for i := len(kept); i < len(e.conns); i++ {
			e.conns[i] = nil
		}
		e.conns = kept

		if len(e.conns) == 0 {
			if emptied == nil {
				emptied = make(map[string]bool)
			}
			emptied[userID] = true
			delete(r.entries, userID)
		}
	}

	if len(emptied) > 0 {
		order := r.order[:0]
		for _, userID := range r.order {
			if !emptied[userID] {
				order = append(order, userID)
			}
		}
		r.order = order
	}

	return owners
}

// UpdateCapabilities sets the flags on every connection owned by userID.
// All tabs of the same user share one set of flags; this is intentional.
// Returns false when the user has no entry.
func (r *Registry) UpdateCapabilities(userID string, caps model.Capabilities) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return false
	}
	for _, c := range e.conns {
		c.Caps = caps
	}
	return true
}

// Snapshot flattens the registry into one row per connection.
func (r *Registry) Snapshot() []model.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.PresenceEntry, 0, len(r.order))
	for _, userID := range r.order {
		for _, c := range r.entries[userID].conns {
			out = append(out, model.PresenceEntry{
				UserID:   userID,
				SocketID: c.ID,
				Name:     c.Name,
				Status:   c.Status,
				Screen:   c.Caps.Screen,
				Voice:    c.Caps.Voice,
				Webcam:   c.Caps.Webcam,
			})
		}
	}
	return out
}

func (r *Registry) Has(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[userID]
	return ok
}

// ConnectionIDs returns the live connection ids of userID in insertion order.
func (r *Registry) ConnectionIDs(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(e.conns))
	for _, c := range e.conns {
		ids = append(ids, c.ID)
	}
	return ids
}

// Users returns the present user ids accepted by match, in insertion order.
// A nil match returns every user.
func (r *Registry) Users(match func(userID string) bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.order))
	for _, userID := range r.order {
		if match == nil || match(userID) {
			users = append(users, userID)
		}
	}
	return users
}

// State summarises a single user for the presence mirror.
func (r *Registry) State(userID string) (UserState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return UserState{UserID: userID}, false
	}

	st := UserState{
		UserID:      userID,
		Online:      true,
		Connections: len(e.conns),
	}
	if len(e.conns) > 0 {
		st.Name = e.conns[0].Name
		st.Caps = e.conns[0].Caps
	}
	return st, true
}
