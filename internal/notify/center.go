package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Center keeps display-only messages until their timer fires.
type Center struct {
	mu     sync.Mutex
	active []Notification
	timers map[string]*time.Timer
}

func NewCenter() *Center {
	return &Center{timers: map[string]*time.Timer{}}
}

func (c *Center) Notify(msg string, ttl time.Duration) {
	n := Notification{
		ID:        "n_" + uuid.NewString(),
		Message:   msg,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = append(c.active, n)
	c.timers[n.ID] = time.AfterFunc(ttl, func() { c.Dismiss(n.ID) })
}

func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	n := 0
	for _, it := range c.active {
		if it.ID != id {
			c.active[n] = it
			n++
		}
	}
	c.active = c.active[:n]
}

func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification{}, c.active...)
}
