package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Alia5/vrpoll/tracking"
)

type sessionEntry struct {
	id      uint32
	mode    tracking.ApplicationMode
	session *tracking.Guard
	idle    *time.Timer
}

// sessionTable tracks remote sessions opened through session/init.
type sessionTable struct {
	mutex       sync.Mutex
	nextID      uint32
	entries     map[uint32]*sessionEntry
	idleTimeout time.Duration
	onExpire    func(id uint32, err error)
}

func newSessionTable(idleTimeout time.Duration, onExpire func(id uint32, err error)) *sessionTable {
	return &sessionTable{
		entries:     make(map[uint32]*sessionEntry),
		idleTimeout: idleTimeout,
		onExpire:    onExpire,
	}
}

func (t *sessionTable) open(ctx context.Context, rt tracking.Runtime, mode tracking.ApplicationMode) (uint32, error) {
	s, err := rt.Init(ctx, mode)
	if err != nil {
		return 0, err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.nextID++
	e := &sessionEntry{id: t.nextID, mode: mode, session: tracking.NewGuard(s)}
	if t.idleTimeout > 0 {
		id := e.id
		e.idle = time.AfterFunc(t.idleTimeout, func() {
			if err := t.close(id); err == nil && t.onExpire != nil {
				t.onExpire(id, nil)
			}
		})
	}
	t.entries[e.id] = e
	return e.id, nil
}

// get returns the session and restarts its idle timer.
func (t *sessionTable) get(id uint32) (tracking.Session, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	if e.idle != nil {
		e.idle.Reset(t.idleTimeout)
	}
	return e.session, true
}

func (t *sessionTable) close(id uint32) error {
	t.mutex.Lock()
	e, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mutex.Unlock()
	if !ok {
		return fmt.Errorf("session %d not found", id)
	}
	if e.idle != nil {
		e.idle.Stop()
	}
	return e.session.Shutdown()
}

func (t *sessionTable) closeAll() {
	t.mutex.Lock()
	ids := make([]uint32, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	t.mutex.Unlock()
	for _, id := range ids {
		_ = t.close(id)
	}
}

func (t *sessionTable) count() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.entries)
}
