package schedule

import (
	"sync"
	"time"

	"clinic-dashboard-server/internal/models"
)

// Intent is an optimistic move shown on the calendar while the store
// call that persists it is in flight.
type Intent struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	seq   uint64
}

// Collection is the dashboard's cached appointment list. Every mutation of
// an appointment takes a sequence number from Begin; a completion carrying
// an older sequence than the last one committed for that id is dropped, so
// out-of-order store responses cannot overwrite newer state.
type Collection struct {
	mu           sync.Mutex
	appointments []models.Appointment
	intents      map[models.ID]Intent
	issued       map[models.ID]uint64
	committed    map[models.ID]uint64
	version      uint64
	changedAt    map[models.ID]uint64
	deleted      map[models.ID]bool
	loaded       bool
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{
		intents:   make(map[models.ID]Intent),
		issued:    make(map[models.ID]uint64),
		committed: make(map[models.ID]uint64),
		changedAt: make(map[models.ID]uint64),
		deleted:   make(map[models.ID]bool),
	}
}

// Snapshot copies the current list.
func (c *Collection) Snapshot() []models.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Appointment, len(c.appointments))
	copy(out, c.appointments)
	return out
}

// Get returns the cached appointment with id.
func (c *Collection) Get(id models.ID) (models.Appointment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return models.Appointment{}, false
	}
	return c.appointments[i], true
}

// Loaded reports whether Replace has run at least once.
func (c *Collection) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Version is a counter bumped by every commit.
func (c *Collection) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Begin issues the next mutation sequence for id.
func (c *Collection) Begin(id models.ID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued[id]++
	return c.issued[id]
}

// Commit stores a as the result of mutation seq. It reports false when a
// newer mutation of the same id has already been committed.
func (c *Collection) Commit(id models.ID, seq uint64, a models.Appointment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.committed[id] {
		return false
	}
	c.committed[id] = seq
	c.touch(id)
	delete(c.deleted, id)
	if i := c.indexOf(id); i >= 0 {
		c.appointments[i] = a
	} else {
		c.appointments = append(c.appointments, a)
	}
	return true
}

// CommitDelete removes id as the result of mutation seq.
func (c *Collection) CommitDelete(id models.ID, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.committed[id] {
		return false
	}
	c.committed[id] = seq
	c.touch(id)
	c.deleted[id] = true
	delete(c.intents, id)
	if i := c.indexOf(id); i >= 0 {
		c.appointments = append(c.appointments[:i], c.appointments[i+1:]...)
	}
	return true
}

// Add inserts a newly created appointment.
func (c *Collection) Add(a models.Appointment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch(a.ID)
	delete(c.deleted, a.ID)
	if i := c.indexOf(a.ID); i >= 0 {
		c.appointments[i] = a
		return
	}
	c.appointments = append(c.appointments, a)
}

// Replace installs a freshly fetched list. since is the Version observed
// before the fetch started; appointments committed or deleted locally after
// that point keep their local state.
func (c *Collection) Replace(list []models.Appointment, since uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	local := make(map[models.ID]models.Appointment, len(c.appointments))
	for _, a := range c.appointments {
		local[a.ID] = a
	}

	out := make([]models.Appointment, 0, len(list))
	seen := make(map[models.ID]bool, len(list))
	for _, a := range list {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		if c.changedAt[a.ID] > since {
			if c.deleted[a.ID] {
				continue
			}
			if mine, ok := local[a.ID]; ok {
				a = mine
			}
		}
		out = append(out, a)
	}
	for _, a := range c.appointments {
		if !seen[a.ID] && c.changedAt[a.ID] > since {
			out = append(out, a)
		}
	}

	c.appointments = out
	c.loaded = true
}

// SetIntent records an optimistic move for mutation seq.
func (c *Collection) SetIntent(id models.ID, seq uint64, start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents[id] = Intent{Start: start, End: end, seq: seq}
}

// ClearIntent drops the intent of mutation seq. A newer intent for the same
// id is left in place.
func (c *Collection) ClearIntent(id models.ID, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if in, ok := c.intents[id]; ok && in.seq == seq {
		delete(c.intents, id)
	}
}

// Intents copies the in-flight moves.
func (c *Collection) Intents() map[models.ID]Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[models.ID]Intent, len(c.intents))
	for id, in := range c.intents {
		out[id] = in
	}
	return out
}

func (c *Collection) touch(id models.ID) {
	c.version++
	c.changedAt[id] = c.version
}

func (c *Collection) indexOf(id models.ID) int {
	for i, a := range c.appointments {
		if a.ID == id {
			return i
		}
	}
	return -1
}
