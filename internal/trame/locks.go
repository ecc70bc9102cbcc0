package trame

import (
	"fmt"
	"sync"
	"time"
)

// planLocks serializes plan creation and rule application per (site, date).
// Dates are independent of each other, so there is no shared lock: concurrent
// applications on distinct dates proceed in parallel.
type planLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPlanLocks() *planLocks {
	return &planLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *planLocks) lock(siteID string, date time.Time) func() {
	key := fmt.Sprintf("%s|%s", siteID, date.Format("2006-01-02"))

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
